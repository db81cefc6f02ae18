package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/TaskForge/internal/domain"
	"github.com/Strob0t/TaskForge/internal/domain/calendar"
	"github.com/Strob0t/TaskForge/internal/domain/contact"
	"github.com/Strob0t/TaskForge/internal/domain/instruction"
	"github.com/Strob0t/TaskForge/internal/domain/mail"
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/port/database"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// scannable abstracts pgx.Row and pgx.Rows for the scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// --- Tasks ---

func (s *Store) CreateTask(ctx context.Context, t *task.Task) error {
	contextJSON, err := json.Marshal(t.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (owner_id, description, context, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		t.OwnerID, t.Description, contextJSON, t.Status)

	if err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, ownerID, id string) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, description, context, status, result, created_at, updated_at
		 FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get task %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, ownerID string) ([]*task.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, description, context, status, result, created_at, updated_at
		 FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTaskProgress(ctx context.Context, t *task.Task) error {
	contextJSON, err := json.Marshal(t.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE tasks SET status = $2, context = $3, result = $4, updated_at = now()
		 WHERE id = $1 AND owner_id = $5
		 RETURNING updated_at`,
		t.ID, t.Status, contextJSON, t.Result, t.OwnerID)

	if err := row.Scan(&t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update task %s: %w", t.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	return nil
}

func scanTask(row scannable) (*task.Task, error) {
	var t task.Task
	var contextJSON []byte
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &contextJSON, &t.Status, &t.Result, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &t.Context); err != nil {
			return nil, fmt.Errorf("unmarshal context: %w", err)
		}
	}
	return &t, nil
}

// --- Instructions ---

func (s *Store) CreateInstruction(ctx context.Context, ins *instruction.Instruction) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO instructions (owner_id, text, active)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		ins.OwnerID, ins.Text, ins.Active)

	if err := row.Scan(&ins.ID, &ins.CreatedAt); err != nil {
		return fmt.Errorf("create instruction: %w", err)
	}
	return nil
}

func (s *Store) ListInstructions(ctx context.Context, ownerID string) ([]*instruction.Instruction, error) {
	return s.listInstructions(ctx,
		`SELECT id, owner_id, text, active, created_at
		 FROM instructions WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

func (s *Store) ListActiveInstructions(ctx context.Context, ownerID string) ([]*instruction.Instruction, error) {
	return s.listInstructions(ctx,
		`SELECT id, owner_id, text, active, created_at
		 FROM instructions WHERE owner_id = $1 AND active ORDER BY created_at DESC`, ownerID)
}

func (s *Store) listInstructions(ctx context.Context, query, ownerID string) ([]*instruction.Instruction, error) {
	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list instructions: %w", err)
	}
	defer rows.Close()

	var out []*instruction.Instruction
	for rows.Next() {
		var ins instruction.Instruction
		if err := rows.Scan(&ins.ID, &ins.OwnerID, &ins.Text, &ins.Active, &ins.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &ins)
	}
	return out, rows.Err()
}

func (s *Store) ToggleInstruction(ctx context.Context, ownerID, id string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE instructions SET active = $3 WHERE id = $1 AND owner_id = $2`, id, ownerID, active)
	if err != nil {
		return fmt.Errorf("toggle instruction %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("toggle instruction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// --- Email archive ---

func (s *Store) UpsertMessage(ctx context.Context, m *mail.Message) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO messages (owner_id, remote_id, sender, recipient, subject, body, snippet, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (owner_id, remote_id) DO NOTHING`,
		m.OwnerID, m.RemoteID, m.Sender, m.Recipient, m.Subject, m.Body, m.Snippet, m.SentAt)
	if err != nil {
		return false, fmt.Errorf("upsert message %s: %w", m.RemoteID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SearchMessages(ctx context.Context, ownerID, query string, limit int) ([]*mail.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, remote_id, sender, recipient, subject, body, snippet, sent_at
		 FROM messages
		 WHERE owner_id = $1 AND (subject ILIKE $2 OR body ILIKE $2 OR sender ILIKE $2)
		 ORDER BY sent_at DESC LIMIT $3`,
		ownerID, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (s *Store) ListMessages(ctx context.Context, ownerID string, limit int) ([]*mail.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, remote_id, sender, recipient, subject, body, snippet, sent_at
		 FROM messages WHERE owner_id = $1 ORDER BY sent_at DESC LIMIT $2`,
		ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

func collectMessages(rows pgx.Rows) ([]*mail.Message, error) {
	var out []*mail.Message
	for rows.Next() {
		var m mail.Message
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.RemoteID, &m.Sender, &m.Recipient, &m.Subject, &m.Body, &m.Snippet, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// --- Contacts ---

func (s *Store) InsertContact(ctx context.Context, c *contact.Contact) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (owner_id, remote_id, email, first_name, last_name, company)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		c.OwnerID, c.RemoteID, c.Email, c.FirstName, c.LastName, c.Company)

	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("insert contact %s: %w", c.Email, err)
	}
	return nil
}

func (s *Store) UpsertContact(ctx context.Context, c *contact.Contact) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO contacts (owner_id, remote_id, email, first_name, last_name, company)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (owner_id, remote_id) DO NOTHING`,
		c.OwnerID, c.RemoteID, c.Email, c.FirstName, c.LastName, c.Company)
	if err != nil {
		return false, fmt.Errorf("upsert contact %s: %w", c.RemoteID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetContactByEmail(ctx context.Context, ownerID, email string) (*contact.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, remote_id, email, first_name, last_name, company, created_at
		 FROM contacts WHERE owner_id = $1 AND lower(email) = lower($2)`, ownerID, email)

	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get contact %s: %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get contact %s: %w", email, err)
	}
	return c, nil
}

func (s *Store) SearchContacts(ctx context.Context, ownerID, query string) ([]*contact.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, remote_id, email, first_name, last_name, company, created_at
		 FROM contacts
		 WHERE owner_id = $1 AND (email ILIKE $2 OR first_name ILIKE $2 OR last_name ILIKE $2 OR company ILIKE $2)
		 ORDER BY created_at DESC`,
		ownerID, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	defer rows.Close()

	var out []*contact.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) InsertNote(ctx context.Context, n *contact.Note) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO contact_notes (contact_id, body)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		n.ContactID, n.Body)

	if err := row.Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("insert note for contact %s: %w", n.ContactID, err)
	}
	return nil
}

func scanContact(row scannable) (*contact.Contact, error) {
	var c contact.Contact
	if err := row.Scan(&c.ID, &c.OwnerID, &c.RemoteID, &c.Email, &c.FirstName, &c.LastName, &c.Company, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// --- Calendar ---

func (s *Store) InsertEvent(ctx context.Context, e *calendar.Event) error {
	attendeesJSON, err := json.Marshal(e.Attendees)
	if err != nil {
		return fmt.Errorf("marshal attendees: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO meetings (owner_id, remote_id, title, start_time, end_time, attendees)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		e.OwnerID, e.RemoteID, e.Title, e.StartTime, e.EndTime, attendeesJSON)

	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("insert event %s: %w", e.Title, err)
	}
	return nil
}

func (s *Store) SearchEvents(ctx context.Context, ownerID, query string, start, end time.Time) ([]*calendar.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, remote_id, title, start_time, end_time, attendees, created_at
		 FROM meetings
		 WHERE owner_id = $1 AND title ILIKE $2
		   AND ($3::timestamptz IS NULL OR start_time >= $3)
		   AND ($4::timestamptz IS NULL OR start_time <= $4)
		 ORDER BY start_time`,
		ownerID, "%"+query+"%", nullableTime(start), nullableTime(end))
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	var out []*calendar.Event
	for rows.Next() {
		var e calendar.Event
		var attendeesJSON []byte
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.RemoteID, &e.Title, &e.StartTime, &e.EndTime, &attendeesJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(attendeesJSON) > 0 {
			if err := json.Unmarshal(attendeesJSON, &e.Attendees); err != nil {
				return nil, fmt.Errorf("unmarshal attendees: %w", err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// --- Connected accounts ---

func (s *Store) GetConnectedAccount(ctx context.Context, ownerID, provider string) (*database.ConnectedAccount, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, provider, access_token, expires_at
		 FROM connected_accounts WHERE owner_id = $1 AND provider = $2`, ownerID, provider)

	var a database.ConnectedAccount
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Provider, &a.AccessToken, &a.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get connected account %s/%s: %w", ownerID, provider, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get connected account %s/%s: %w", ownerID, provider, err)
	}
	return &a, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
