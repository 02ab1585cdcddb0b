// Package memory implements the structured personal memory store: tasks,
// reminders, notes, and contacts, persisted in SQLite.
package memory

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thaaaru/kadiya/internal/db"
)

// Store provides CRUD access to memory records.
type Store struct {
	database *db.DB
}

// New creates a Store.
func New(database *db.DB) *Store {
	return &Store{database: database}
}

// newID returns a short random record identifier (8 hex chars).
func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:8]
}

// ── Tasks ────────────────────────────────────────────────────────────────────

// AddTask inserts a pending task. dueAt is an optional YYYY-MM-DD date,
// priority defaults to "normal".
func (s *Store) AddTask(ctx context.Context, title, dueAt, priority string) (*db.Task, error) {
	if priority == "" {
		priority = "normal"
	}
	task := &db.Task{
		ID:        newID(),
		Title:     title,
		Status:    "pending",
		DueAt:     dueAt,
		Priority:  priority,
		CreatedAt: time.Now(),
	}
	_, err := s.database.ExecContext(ctx,
		`INSERT INTO tasks (id, title, status, due_at, priority) VALUES (?,?,?,?,?)`,
		task.ID, task.Title, task.Status, task.DueAt, task.Priority)
	if err != nil {
		return nil, fmt.Errorf("memory.AddTask: %w", err)
	}
	return task, nil
}

// CompleteTask marks a task completed, matching by exact id or by title
// prefix (case-insensitive). Returns nil when nothing matched.
func (s *Store) CompleteTask(ctx context.Context, idOrTitle string) (*db.Task, error) {
	row := s.database.QueryRowContext(ctx, `
		SELECT id, title, status, due_at, priority, created_at
		FROM tasks
		WHERE status='pending' AND (id=? OR LOWER(title) LIKE LOWER(?) || '%')
		ORDER BY created_at LIMIT 1`, idOrTitle, idOrTitle)

	var t db.Task
	if err := row.Scan(&t.ID, &t.Title, &t.Status, &t.DueAt, &t.Priority, &t.CreatedAt); err != nil {
		return nil, nil
	}

	now := time.Now()
	_, err := s.database.ExecContext(ctx,
		`UPDATE tasks SET status='completed', completed_at=? WHERE id=?`, now, t.ID)
	if err != nil {
		return nil, fmt.Errorf("memory.CompleteTask: %w", err)
	}
	t.Status = "completed"
	t.CompletedAt.Time, t.CompletedAt.Valid = now, true
	return &t, nil
}

// ListTasks returns tasks with the given status, oldest first.
func (s *Store) ListTasks(ctx context.Context, status string) ([]db.Task, error) {
	if status == "" {
		status = "pending"
	}
	rows, err := s.database.QueryContext(ctx, `
		SELECT id, title, status, due_at, priority, created_at, completed_at
		FROM tasks WHERE status=? ORDER BY created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("memory.ListTasks: %w", err)
	}
	defer rows.Close()

	var tasks []db.Task
	for rows.Next() {
		var t db.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.DueAt, &t.Priority, &t.CreatedAt, &t.CompletedAt); err != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// TodayTasks returns pending tasks due today.
func (s *Store) TodayTasks(ctx context.Context) ([]db.Task, error) {
	today := time.Now().Format("2006-01-02")
	rows, err := s.database.QueryContext(ctx, `
		SELECT id, title, status, due_at, priority, created_at, completed_at
		FROM tasks WHERE status='pending' AND due_at=? ORDER BY created_at`, today)
	if err != nil {
		return nil, fmt.Errorf("memory.TodayTasks: %w", err)
	}
	defer rows.Close()

	var tasks []db.Task
	for rows.Next() {
		var t db.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.DueAt, &t.Priority, &t.CreatedAt, &t.CompletedAt); err != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ── Reminders ────────────────────────────────────────────────────────────────

// AddReminder inserts a reminder to be delivered at remindAt.
func (s *Store) AddReminder(ctx context.Context, text string, remindAt time.Time) (*db.Reminder, error) {
	r := &db.Reminder{
		ID:        newID(),
		Text:      text,
		RemindAt:  remindAt,
		CreatedAt: time.Now(),
	}
	_, err := s.database.ExecContext(ctx,
		`INSERT INTO reminders (id, text, remind_at) VALUES (?,?,?)`,
		r.ID, r.Text, r.RemindAt)
	if err != nil {
		return nil, fmt.Errorf("memory.AddReminder: %w", err)
	}
	return r, nil
}

// DueReminders returns unsent reminders whose time has passed.
func (s *Store) DueReminders(ctx context.Context, now time.Time) ([]db.Reminder, error) {
	rows, err := s.database.QueryContext(ctx, `
		SELECT id, text, remind_at, sent, created_at
		FROM reminders WHERE sent=0 AND remind_at<=? ORDER BY remind_at`, now)
	if err != nil {
		return nil, fmt.Errorf("memory.DueReminders: %w", err)
	}
	defer rows.Close()

	var reminders []db.Reminder
	for rows.Next() {
		var r db.Reminder
		if err := rows.Scan(&r.ID, &r.Text, &r.RemindAt, &r.Sent, &r.CreatedAt); err != nil {
			continue
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// MarkReminderSent flags a reminder as delivered.
func (s *Store) MarkReminderSent(ctx context.Context, id string) error {
	_, err := s.database.ExecContext(ctx, `UPDATE reminders SET sent=1 WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("memory.MarkReminderSent: %w", err)
	}
	return nil
}

// PendingReminders returns unsent reminders, soonest first.
func (s *Store) PendingReminders(ctx context.Context) ([]db.Reminder, error) {
	rows, err := s.database.QueryContext(ctx, `
		SELECT id, text, remind_at, sent, created_at
		FROM reminders WHERE sent=0 ORDER BY remind_at`)
	if err != nil {
		return nil, fmt.Errorf("memory.PendingReminders: %w", err)
	}
	defer rows.Close()

	var reminders []db.Reminder
	for rows.Next() {
		var r db.Reminder
		if err := rows.Scan(&r.ID, &r.Text, &r.RemindAt, &r.Sent, &r.CreatedAt); err != nil {
			continue
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// ── Notes ────────────────────────────────────────────────────────────────────

// AddNote inserts a note with optional comma-separated tags.
func (s *Store) AddNote(ctx context.Context, text, tags string) (*db.Note, error) {
	n := &db.Note{ID: newID(), Text: text, Tags: tags, CreatedAt: time.Now()}
	_, err := s.database.ExecContext(ctx,
		`INSERT INTO notes (id, text, tags) VALUES (?,?,?)`, n.ID, n.Text, n.Tags)
	if err != nil {
		return nil, fmt.Errorf("memory.AddNote: %w", err)
	}
	return n, nil
}

// SearchNotes returns notes whose text or tags contain the query,
// case-insensitive, newest first. An empty query returns everything.
func (s *Store) SearchNotes(ctx context.Context, query string) ([]db.Note, error) {
	like := "%" + strings.ToLower(query) + "%"
	rows, err := s.database.QueryContext(ctx, `
		SELECT id, text, tags, created_at FROM notes
		WHERE LOWER(text) LIKE ? OR LOWER(tags) LIKE ?
		ORDER BY created_at DESC`, like, like)
	if err != nil {
		return nil, fmt.Errorf("memory.SearchNotes: %w", err)
	}
	defer rows.Close()

	var notes []db.Note
	for rows.Next() {
		var n db.Note
		if err := rows.Scan(&n.ID, &n.Text, &n.Tags, &n.CreatedAt); err != nil {
			continue
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// ── Contacts ─────────────────────────────────────────────────────────────────

// AddContact inserts a contact record.
func (s *Store) AddContact(ctx context.Context, name, phone, email, notes string) (*db.Contact, error) {
	c := &db.Contact{ID: newID(), Name: name, Phone: phone, Email: email, Notes: notes, CreatedAt: time.Now()}
	_, err := s.database.ExecContext(ctx,
		`INSERT INTO contacts (id, name, phone, email, notes) VALUES (?,?,?,?,?)`,
		c.ID, c.Name, c.Phone, c.Email, c.Notes)
	if err != nil {
		return nil, fmt.Errorf("memory.AddContact: %w", err)
	}
	return c, nil
}

// FindContacts returns contacts whose name matches the query,
// case-insensitive. An empty query returns everyone.
func (s *Store) FindContacts(ctx context.Context, query string) ([]db.Contact, error) {
	like := "%" + strings.ToLower(query) + "%"
	rows, err := s.database.QueryContext(ctx, `
		SELECT id, name, phone, email, notes, created_at FROM contacts
		WHERE LOWER(name) LIKE ? ORDER BY name`, like)
	if err != nil {
		return nil, fmt.Errorf("memory.FindContacts: %w", err)
	}
	defer rows.Close()

	var contacts []db.Contact
	for rows.Next() {
		var c db.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Notes, &c.CreatedAt); err != nil {
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
