package proposals

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvote/internal/server/models"
)

const columns = `id, owner, title, description, voters, yes_votes, no_votes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func encodeVoters(voters []string) (string, error) {
	if voters == nil {
		voters = []string{}
	}
	b, err := json.Marshal(voters)
	if err != nil {
		return "", fmt.Errorf("encode voters: %w", err)
	}
	return string(b), nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func scanProposal(row rowScanner) (*models.Proposal, error) {
	var (
		p         models.Proposal
		voters    []byte
		updatedAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Owner, &p.Title, &p.Description, &voters,
		&p.YesVotes, &p.NoVotes, &p.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}

	p.Voters = []string{}
	if len(voters) > 0 {
		if err := json.Unmarshal(voters, &p.Voters); err != nil {
			return nil, fmt.Errorf("decode voters of %s: %w", p.ID, err)
		}
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		p.UpdatedAt = &t
	}
	return &p, nil
}

func scanAll(rows *sql.Rows) ([]*models.Proposal, error) {
	defer rows.Close()

	result := make([]*models.Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return notFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
