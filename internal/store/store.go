package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/mohammad-safakhou/confpilot/internal/agenda"
)

type Store struct {
	DB *sql.DB
}

func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// ListSessions returns the full catalog ordered by start time, speakers
// attached.
func (s *Store) ListSessions(ctx context.Context) ([]agenda.Session, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, title, description, start_time, end_time, location, track, level, tags
FROM sessions
ORDER BY start_time, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []agenda.Session
	index := map[string]int{}
	for rows.Next() {
		var sess agenda.Session
		var description, location, track, level sql.NullString
		var tags pq.StringArray
		if err := rows.Scan(&sess.ID, &sess.Title, &description, &sess.StartTime, &sess.EndTime, &location, &track, &level, &tags); err != nil {
			return nil, err
		}
		sess.Description = description.String
		sess.Location = location.String
		sess.Track = track.String
		sess.Level = level.String
		sess.Tags = []string(tags)
		index[sess.ID] = len(out)
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	speakerRows, err := s.DB.QueryContext(ctx, `
SELECT ss.session_id, sp.id, sp.name, sp.title, sp.company
FROM session_speakers ss
JOIN speakers sp ON sp.id = ss.speaker_id
ORDER BY ss.session_id, sp.name`)
	if err != nil {
		return nil, err
	}
	defer speakerRows.Close()
	for speakerRows.Next() {
		var sessionID string
		var sp agenda.Speaker
		var title, company sql.NullString
		if err := speakerRows.Scan(&sessionID, &sp.ID, &sp.Name, &title, &company); err != nil {
			return nil, err
		}
		sp.Title = title.String
		sp.Company = company.String
		if i, ok := index[sessionID]; ok {
			out[i].Speakers = append(out[i].Speakers, sp)
		}
	}
	return out, speakerRows.Err()
}

// GetSession fetches one catalog session by id.
func (s *Store) GetSession(ctx context.Context, id string) (agenda.Session, bool, error) {
	if strings.TrimSpace(id) == "" {
		return agenda.Session{}, false, fmt.Errorf("session id required")
	}
	row := s.DB.QueryRowContext(ctx, `
SELECT id, title, description, start_time, end_time, location, track, level, tags
FROM sessions
WHERE id=$1`, id)
	var sess agenda.Session
	var description, location, track, level sql.NullString
	var tags pq.StringArray
	if err := row.Scan(&sess.ID, &sess.Title, &description, &sess.StartTime, &sess.EndTime, &location, &track, &level, &tags); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return agenda.Session{}, false, nil
		}
		return agenda.Session{}, false, err
	}
	sess.Description = description.String
	sess.Location = location.String
	sess.Track = track.String
	sess.Level = level.String
	sess.Tags = []string(tags)

	speakerRows, err := s.DB.QueryContext(ctx, `
SELECT sp.id, sp.name, sp.title, sp.company
FROM session_speakers ss
JOIN speakers sp ON sp.id = ss.speaker_id
WHERE ss.session_id=$1
ORDER BY sp.name`, id)
	if err != nil {
		return agenda.Session{}, false, err
	}
	defer speakerRows.Close()
	for speakerRows.Next() {
		var sp agenda.Speaker
		var title, company sql.NullString
		if err := speakerRows.Scan(&sp.ID, &sp.Name, &title, &company); err != nil {
			return agenda.Session{}, false, err
		}
		sp.Title = title.String
		sp.Company = company.String
		sess.Speakers = append(sess.Speakers, sp)
	}
	return sess, true, speakerRows.Err()
}

// UpsertSession writes one catalog entry; used by catalog refresh.
func (s *Store) UpsertSession(ctx context.Context, sess agenda.Session) error {
	if strings.TrimSpace(sess.ID) == "" || strings.TrimSpace(sess.Title) == "" {
		return fmt.Errorf("session id and title required")
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO sessions (id, title, description, start_time, end_time, location, track, level, tags, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  description = EXCLUDED.description,
  start_time = EXCLUDED.start_time,
  end_time = EXCLUDED.end_time,
  location = EXCLUDED.location,
  track = EXCLUDED.track,
  level = EXCLUDED.level,
  tags = EXCLUDED.tags,
  updated_at = NOW()`,
		sess.ID, sess.Title, nullableString(sess.Description), sess.StartTime, sess.EndTime,
		nullableString(sess.Location), nullableString(sess.Track), nullableString(sess.Level),
		pq.Array(sess.Tags))
	return err
}

// UpsertSpeaker writes one speaker and links it to a session.
func (s *Store) UpsertSpeaker(ctx context.Context, sessionID string, sp agenda.Speaker) error {
	if strings.TrimSpace(sp.ID) == "" || strings.TrimSpace(sp.Name) == "" {
		return fmt.Errorf("speaker id and name required")
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO speakers (id, name, title, company)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  title = EXCLUDED.title,
  company = EXCLUDED.company`,
		sp.ID, sp.Name, nullableString(sp.Title), nullableString(sp.Company))
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO session_speakers (session_id, speaker_id)
VALUES ($1,$2)
ON CONFLICT DO NOTHING`, sessionID, sp.ID)
	return err
}

// CatalogVersion returns the most recent catalog update time; the cache
// layer compares it with what it last stored.
func (s *Store) CatalogVersion(ctx context.Context) (time.Time, error) {
	var ts sql.NullTime
	if err := s.DB.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM sessions`).Scan(&ts); err != nil {
		return time.Time{}, err
	}
	return ts.Time, nil
}

// GetProfile fetches the attendee profile for a user id.
func (s *Store) GetProfile(ctx context.Context, userID string) (agenda.UserProfile, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return agenda.UserProfile{}, false, fmt.Errorf("user id required")
	}
	row := s.DB.QueryRowContext(ctx, `
SELECT user_id, role, organization_type, company, interests, goals, favorite_session_ids, favorite_speaker_ids
FROM profiles
WHERE user_id=$1`, userID)
	var p agenda.UserProfile
	var role, orgType, company sql.NullString
	var interests, goals, favSessions, favSpeakers pq.StringArray
	if err := row.Scan(&p.ID, &role, &orgType, &company, &interests, &goals, &favSessions, &favSpeakers); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return agenda.UserProfile{}, false, nil
		}
		return agenda.UserProfile{}, false, err
	}
	p.Role = role.String
	p.OrganizationType = orgType.String
	p.Company = company.String
	p.Interests = []string(interests)
	p.Goals = []string(goals)
	p.FavoriteSessionIDs = []string(favSessions)
	p.FavoriteSpeakerIDs = []string(favSpeakers)
	return p, true, nil
}

// UpsertProfile writes the attendee profile.
func (s *Store) UpsertProfile(ctx context.Context, p agenda.UserProfile) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("profile user id required")
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO profiles (user_id, role, organization_type, company, interests, goals, favorite_session_ids, favorite_speaker_ids, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
ON CONFLICT (user_id) DO UPDATE SET
  role = EXCLUDED.role,
  organization_type = EXCLUDED.organization_type,
  company = EXCLUDED.company,
  interests = EXCLUDED.interests,
  goals = EXCLUDED.goals,
  favorite_session_ids = EXCLUDED.favorite_session_ids,
  favorite_speaker_ids = EXCLUDED.favorite_speaker_ids,
  updated_at = NOW()`,
		p.ID, nullableString(p.Role), nullableString(p.OrganizationType), nullableString(p.Company),
		pq.Array(p.Interests), pq.Array(p.Goals), pq.Array(p.FavoriteSessionIDs), pq.Array(p.FavoriteSpeakerIDs))
	return err
}

func nullableString(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
