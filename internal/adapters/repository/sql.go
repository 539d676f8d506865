package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/gpstandings/internal/domain/model"

	_ "modernc.org/sqlite" // driver: sqlite
)

// DefaultDSN is used when Open is given an empty DSN.
const DefaultDSN = "file:gpstandings.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"

// SQL is a Store backed by a database/sql handle on the sqlite driver.
type SQL struct {
	db *sql.DB
}

// Open opens the sqlite database at dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*SQL, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaSQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQL{db: db}, nil
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS series (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  active INTEGER NOT NULL DEFAULT 1,
  scoring TEXT NOT NULL,
  ord TEXT NOT NULL DEFAULT 'ascending',
  by_division INTEGER NOT NULL DEFAULT 0,
  average_tie INTEGER NOT NULL DEFAULT 0,
  multiplier TEXT NOT NULL DEFAULT '1',
  max_gender_points INTEGER,
  max_division_points INTEGER,
  max_races INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS divisions (
  series_id INTEGER NOT NULL REFERENCES series(id) ON DELETE CASCADE,
  low INTEGER NOT NULL,
  high INTEGER NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  PRIMARY KEY (series_id, low, high)
);

CREATE TABLE IF NOT EXISTS races (
  id INTEGER PRIMARY KEY,
  number INTEGER NOT NULL,
  name TEXT NOT NULL,
  date TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS results (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  race_id INTEGER NOT NULL REFERENCES races(id) ON DELETE CASCADE,
  series_id INTEGER NOT NULL REFERENCES series(id) ON DELETE CASCADE,
  runner_id INTEGER NOT NULL DEFAULT 0,
  runner_name TEXT NOT NULL,
  gender TEXT NOT NULL,
  div_low INTEGER NOT NULL DEFAULT 0,
  div_high INTEGER NOT NULL DEFAULT 0,
  time REAL NOT NULL DEFAULT 0,
  agtime REAL NOT NULL DEFAULT 0,
  agpercent REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_results_race_series ON results(race_id, series_id, gender);
`

// Import writes the self-contained dataset d in one transaction. Series,
// divisions and races are upserted; results are appended.
func (s *SQL) Import(ctx context.Context, d Dataset) (err error) {
	if _, err := NewMemory(d); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	for _, r := range d.Series {
		ser, err := r.toSeries()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO series (id, name, active, scoring, ord, by_division, average_tie, multiplier, max_gender_points, max_division_points, max_races)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name=excluded.name, active=excluded.active, scoring=excluded.scoring, ord=excluded.ord,
  by_division=excluded.by_division, average_tie=excluded.average_tie, multiplier=excluded.multiplier,
  max_gender_points=excluded.max_gender_points, max_division_points=excluded.max_division_points, max_races=excluded.max_races`,
			ser.ID, ser.Name, ser.Active, ser.Scoring, string(ser.Order), ser.ByDivision, ser.AverageTie,
			ser.Multiplier.String(), nullInt(ser.MaxGenderPoints), nullInt(ser.MaxDivisionPoints), ser.MaxRaces)
		if err != nil {
			return fmt.Errorf("insert series %q: %w", ser.Name, err)
		}
	}
	for _, r := range d.Divisions {
		_, err := tx.ExecContext(ctx, `
INSERT INTO divisions (series_id, low, high, active) VALUES (?, ?, ?, ?)
ON CONFLICT(series_id, low, high) DO UPDATE SET active=excluded.active`,
			r.SeriesID, r.Low, r.High, r.Active)
		if err != nil {
			return fmt.Errorf("insert division %d-%d: %w", r.Low, r.High, err)
		}
	}
	for _, r := range d.Races {
		_, err := tx.ExecContext(ctx, `
INSERT INTO races (id, number, name, date, active) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET number=excluded.number, name=excluded.name, date=excluded.date, active=excluded.active`,
			r.ID, r.Number, r.Name, r.Date, r.Active)
		if err != nil {
			return fmt.Errorf("insert race %d: %w", r.ID, err)
		}
	}
	for _, r := range d.Results {
		res, err := r.toResult()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO results (race_id, series_id, runner_id, runner_name, gender, div_low, div_high, time, agtime, agpercent)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RaceID, res.SeriesID, res.RunnerID, res.RunnerName, string(res.Gender),
			res.Division.Low, res.Division.High, res.Time, res.AgTime, res.AgPercent)
		if err != nil {
			return fmt.Errorf("insert result of %q: %w", res.RunnerName, err)
		}
	}
	return tx.Commit()
}

const seriesColumns = `id, name, active, scoring, ord, by_division, average_tie, multiplier, max_gender_points, max_division_points, max_races`

func (s *SQL) ActiveSeries(ctx context.Context) ([]model.Series, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Series
	for rows.Next() {
		ser, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ser)
	}
	return out, rows.Err()
}

func (s *SQL) Series(ctx context.Context, name string) (model.Series, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE name = ?`, name)
	ser, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Series{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ser, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSeries(sc scanner) (model.Series, error) {
	var (
		rec        SeriesRecord
		maxG, maxD sql.NullInt64
	)
	if err := sc.Scan(&rec.ID, &rec.Name, &rec.Active, &rec.Scoring, &rec.Order, &rec.ByDivision,
		&rec.AverageTie, &rec.Multiplier, &maxG, &maxD, &rec.MaxRaces); err != nil {
		return model.Series{}, err
	}
	rec.MaxGenderPoints = intPtr(maxG)
	rec.MaxDivisionPoints = intPtr(maxD)
	return rec.toSeries()
}

func (s *SQL) Races(ctx context.Context, seriesID int) ([]model.Race, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.number, r.name, r.date, r.active FROM races r
WHERE r.active = 1 AND EXISTS (SELECT 1 FROM results x WHERE x.race_id = r.id AND x.series_id = ?)
ORDER BY r.number, r.id`, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Race
	for rows.Next() {
		var rec RaceRecord
		if err := rows.Scan(&rec.ID, &rec.Number, &rec.Name, &rec.Date, &rec.Active); err != nil {
			return nil, err
		}
		r, err := rec.toRace()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQL) Divisions(ctx context.Context, seriesID int) ([]model.Division, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT low, high FROM divisions WHERE series_id = ? AND active = 1 ORDER BY low, high`, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Division
	for rows.Next() {
		d := model.Division{SeriesID: seriesID, Active: true}
		if err := rows.Scan(&d.Low, &d.High); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQL) Results(ctx context.Context, raceID, seriesID int, g model.Gender, col model.Column) ([]model.RaceResult, error) {
	orderBy, err := orderColumn(col)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT race_id, series_id, runner_id, runner_name, gender, div_low, div_high, time, agtime, agpercent
FROM results WHERE race_id = ? AND series_id = ? AND gender = ?
ORDER BY `+orderBy+`, seq`, raceID, seriesID, string(g))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RaceResult
	for rows.Next() {
		var (
			r      model.RaceResult
			gender string
		)
		if err := rows.Scan(&r.RaceID, &r.SeriesID, &r.RunnerID, &r.RunnerName, &gender,
			&r.Division.Low, &r.Division.High, &r.Time, &r.AgTime, &r.AgPercent); err != nil {
			return nil, err
		}
		r.Gender = model.Gender(gender)
		out = append(out, r)
	}
	return out, rows.Err()
}

func orderColumn(col model.Column) (string, error) {
	switch col {
	case model.ColumnTime:
		return "time", nil
	case model.ColumnAgTime:
		return "agtime", nil
	case model.ColumnAgPercent:
		return "agpercent", nil
	default:
		return "", fmt.Errorf("unknown order column %q", col)
	}
}

// Close closes the database handle.
func (s *SQL) Close() error { return s.db.Close() }

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
