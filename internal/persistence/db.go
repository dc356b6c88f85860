// Package persistence provides SQLite-based simulation storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/election"
	"github.com/talgya/assembly/internal/engine"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

// DB wraps a SQLite connection for simulation persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS characters (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		ethnicity TEXT NOT NULL,
		region TEXT NOT NULL,
		seat_code TEXT NOT NULL,
		alive INTEGER NOT NULL,
		birth_date TEXT NOT NULL,
		charisma REAL NOT NULL,
		influence REAL NOT NULL,
		recognition REAL NOT NULL,
		economic REAL NOT NULL,
		governance REAL NOT NULL,
		affiliation_id TEXT NOT NULL,
		is_mp INTEGER NOT NULL,
		is_player INTEGER NOT NULL,
		is_affiliation_leader INTEGER NOT NULL,
		history_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS parties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		unity REAL NOT NULL,
		economic REAL NOT NULL,
		governance REAL NOT NULL,
		ethnicity_focus TEXT NOT NULL,
		leader_id TEXT NOT NULL,
		deputy_leader_id TEXT NOT NULL,
		affiliations_json TEXT NOT NULL,
		branches_json TEXT NOT NULL,
		contested_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alliances (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		members_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chronicle (
		id INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		type TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS elections (
		seq INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		entry_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chronicle_date ON chronicle(date);
	CREATE INDEX IF NOT EXISTS idx_characters_alive ON characters(alive);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type characterRow struct {
	ID                  string  `db:"id"`
	Name                string  `db:"name"`
	Ethnicity           string  `db:"ethnicity"`
	Region              string  `db:"region"`
	SeatCode            string  `db:"seat_code"`
	Alive               bool    `db:"alive"`
	BirthDate           string  `db:"birth_date"`
	Charisma            float64 `db:"charisma"`
	Influence           float64 `db:"influence"`
	Recognition         float64 `db:"recognition"`
	Economic            float64 `db:"economic"`
	Governance          float64 `db:"governance"`
	AffiliationID       string  `db:"affiliation_id"`
	IsMP                bool    `db:"is_mp"`
	IsPlayer            bool    `db:"is_player"`
	IsAffiliationLeader bool    `db:"is_affiliation_leader"`
	HistoryJSON         string  `db:"history_json"`
}

type partyRow struct {
	ID               string  `db:"id"`
	Name             string  `db:"name"`
	Color            string  `db:"color"`
	Unity            float64 `db:"unity"`
	Economic         float64 `db:"economic"`
	Governance       float64 `db:"governance"`
	EthnicityFocus   string  `db:"ethnicity_focus"`
	LeaderID         string  `db:"leader_id"`
	DeputyLeaderID   string  `db:"deputy_leader_id"`
	AffiliationsJSON string  `db:"affiliations_json"`
	BranchesJSON     string  `db:"branches_json"`
	ContestedJSON    string  `db:"contested_json"`
}

type allianceRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Kind        string `db:"kind"`
	MembersJSON string `db:"members_json"`
}

type chronicleRow struct {
	ID          int    `db:"id"`
	Date        string `db:"date"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Type        string `db:"type"`
}

// saveCharacters writes all characters to the database (full replace).
func saveCharacters(tx *sqlx.Tx, chars []*agents.Character) error {
	if _, err := tx.Exec("DELETE FROM characters"); err != nil {
		return err
	}
	for _, c := range chars {
		history, err := json.Marshal(c.History)
		if err != nil {
			return fmt.Errorf("character %s history: %w", c.ID, err)
		}
		_, err = tx.NamedExec(`INSERT INTO characters
			(id, name, ethnicity, region, seat_code, alive, birth_date, charisma, influence,
			 recognition, economic, governance, affiliation_id, is_mp, is_player,
			 is_affiliation_leader, history_json)
			VALUES (:id, :name, :ethnicity, :region, :seat_code, :alive, :birth_date, :charisma, :influence,
			 :recognition, :economic, :governance, :affiliation_id, :is_mp, :is_player,
			 :is_affiliation_leader, :history_json)`,
			characterRow{
				ID:                  string(c.ID),
				Name:                c.Name,
				Ethnicity:           string(c.Ethnicity),
				Region:              c.Region,
				SeatCode:            c.SeatCode,
				Alive:               c.Alive,
				BirthDate:           c.BirthDate.Format(time.DateOnly),
				Charisma:            c.Charisma,
				Influence:           c.Influence,
				Recognition:         c.Recognition,
				Economic:            c.Ideology.Economic,
				Governance:          c.Ideology.Governance,
				AffiliationID:       string(c.AffiliationID),
				IsMP:                c.IsMP,
				IsPlayer:            c.IsPlayer,
				IsAffiliationLeader: c.IsAffiliationLeader,
				HistoryJSON:         string(history),
			})
		if err != nil {
			return fmt.Errorf("insert character %s: %w", c.ID, err)
		}
	}
	return nil
}

// saveParties writes all parties to the database (full replace).
func saveParties(tx *sqlx.Tx, parties []*social.Party) error {
	if _, err := tx.Exec("DELETE FROM parties"); err != nil {
		return err
	}
	for _, p := range parties {
		affs, _ := json.Marshal(p.AffiliationIDs)
		branches, _ := json.Marshal(p.Branches)
		contested, _ := json.Marshal(p.ContestedSeats)
		_, err := tx.NamedExec(`INSERT INTO parties
			(id, name, color, unity, economic, governance, ethnicity_focus, leader_id,
			 deputy_leader_id, affiliations_json, branches_json, contested_json)
			VALUES (:id, :name, :color, :unity, :economic, :governance, :ethnicity_focus, :leader_id,
			 :deputy_leader_id, :affiliations_json, :branches_json, :contested_json)`,
			partyRow{
				ID:               string(p.ID),
				Name:             p.Name,
				Color:            p.Color,
				Unity:            p.Unity,
				Economic:         p.Ideology.Economic,
				Governance:       p.Ideology.Governance,
				EthnicityFocus:   string(p.EthnicityFocus),
				LeaderID:         string(p.LeaderID),
				DeputyLeaderID:   string(p.DeputyLeaderID),
				AffiliationsJSON: string(affs),
				BranchesJSON:     string(branches),
				ContestedJSON:    string(contested),
			})
		if err != nil {
			return fmt.Errorf("insert party %s: %w", p.ID, err)
		}
	}
	return nil
}

// saveAlliances writes all alliances to the database (full replace).
func saveAlliances(tx *sqlx.Tx, alliances []*social.Alliance) error {
	if _, err := tx.Exec("DELETE FROM alliances"); err != nil {
		return err
	}
	for _, a := range alliances {
		members, _ := json.Marshal(a.MemberPartyIDs)
		_, err := tx.Exec("INSERT INTO alliances (id, name, kind, members_json) VALUES (?, ?, ?, ?)",
			a.ID, a.Name, string(a.Kind), string(members))
		if err != nil {
			return fmt.Errorf("insert alliance %s: %w", a.ID, err)
		}
	}
	return nil
}

// saveChronicle appends log entries newer than those already stored.
func saveChronicle(tx *sqlx.Tx, log []engine.LogEntry) error {
	var last int
	if err := tx.Get(&last, "SELECT COALESCE(MAX(id), 0) FROM chronicle"); err != nil {
		return err
	}
	for _, e := range log {
		if e.ID <= last {
			continue
		}
		_, err := tx.Exec("INSERT INTO chronicle (id, date, title, description, type) VALUES (?, ?, ?, ?, ?)",
			e.ID, e.Date.Format(time.DateOnly), e.Title, e.Description, string(e.Type))
		if err != nil {
			return fmt.Errorf("insert chronicle %d: %w", e.ID, err)
		}
	}
	return nil
}

// saveElections appends election history entries not yet stored.
func saveElections(tx *sqlx.Tx, st *engine.State) error {
	var stored int
	if err := tx.Get(&stored, "SELECT COUNT(*) FROM elections"); err != nil {
		return err
	}
	for i := stored; i < len(st.History); i++ {
		entry := st.History[i]
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("election %d: %w", i, err)
		}
		if _, err := tx.Exec("INSERT INTO elections (seq, date, entry_json) VALUES (?, ?, ?)",
			i, entry.Date.Format(time.DateOnly), string(data)); err != nil {
			return fmt.Errorf("insert election %d: %w", i, err)
		}
	}
	return nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasWorldState reports whether a simulation has been saved.
func (db *DB) HasWorldState() bool {
	_, err := db.GetMeta("date")
	return err == nil
}

// SaveWorldState performs a full save of the simulation in one transaction.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	st := sim.Snapshot()
	slog.Info("saving world state", "date", st.Date.Format(time.DateOnly), "characters", len(st.Characters), "parties", len(st.Parties))

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveCharacters(tx, st.Characters); err != nil {
		return fmt.Errorf("save characters: %w", err)
	}
	if err := saveParties(tx, st.Parties); err != nil {
		return fmt.Errorf("save parties: %w", err)
	}
	if err := saveAlliances(tx, st.Alliances); err != nil {
		return fmt.Errorf("save alliances: %w", err)
	}
	if err := saveChronicle(tx, st.Log); err != nil {
		return fmt.Errorf("save chronicle: %w", err)
	}
	if err := saveElections(tx, st); err != nil {
		return fmt.Errorf("save elections: %w", err)
	}

	meta, err := metaOf(st)
	if err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("world state saved")
	return nil
}

func metaOf(st *engine.State) (map[string]string, error) {
	gov, err := json.Marshal(st.Government)
	if err != nil {
		return nil, err
	}
	results, err := json.Marshal(st.Results)
	if err != nil {
		return nil, err
	}
	cands, err := json.Marshal(st.SpeakerCandidates)
	if err != nil {
		return nil, err
	}
	pending, err := json.Marshal(st.PendingEvent)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"seed":               strconv.FormatInt(st.Seed, 10),
		"date":               st.Date.Format(time.DateOnly),
		"next_election":      st.NextElection.Format(time.DateOnly),
		"phase":              string(st.Phase),
		"speaker":            string(st.Speaker),
		"speaker_candidates": string(cands),
		"player_id":          string(st.PlayerID),
		"government":         string(gov),
		"results":            string(results),
		"pending_event":      string(pending),
		"generation":         strconv.FormatUint(st.Generation, 10),
	}, nil
}

// LoadWorldState rebuilds the saved simulation over the given static
// reference data.
func (db *DB) LoadWorldState(geo *world.Geography, table social.AffiliationTable) (*engine.Simulation, error) {
	st := &engine.State{}

	meta := make(map[string]string)
	rows, err := db.conn.Queryx("SELECT key, value FROM world_meta")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, err
		}
		meta[k] = v
	}
	rows.Close()
	if _, ok := meta["date"]; !ok {
		return nil, sql.ErrNoRows
	}
	if err := applyMeta(st, meta); err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}

	if st.Characters, err = db.loadCharacters(); err != nil {
		return nil, fmt.Errorf("load characters: %w", err)
	}
	if st.Parties, err = db.loadParties(); err != nil {
		return nil, fmt.Errorf("load parties: %w", err)
	}
	if st.Alliances, err = db.loadAlliances(); err != nil {
		return nil, fmt.Errorf("load alliances: %w", err)
	}
	if st.Log, err = db.RecentChronicle(engine.MaxLogEntries); err != nil {
		return nil, fmt.Errorf("load chronicle: %w", err)
	}
	for i, j := 0, len(st.Log)-1; i < j; i, j = i+1, j-1 {
		st.Log[i], st.Log[j] = st.Log[j], st.Log[i]
	}
	if st.History, err = db.ElectionHistory(); err != nil {
		return nil, fmt.Errorf("load elections: %w", err)
	}

	sim, err := engine.Restore(st, geo, table)
	if err != nil {
		return nil, err
	}
	slog.Info("world state loaded", "date", st.Date.Format(time.DateOnly), "characters", len(st.Characters))
	return sim, nil
}

func applyMeta(st *engine.State, meta map[string]string) error {
	var err error
	if st.Seed, err = strconv.ParseInt(meta["seed"], 10, 64); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if st.Date, err = time.Parse(time.DateOnly, meta["date"]); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if st.NextElection, err = time.Parse(time.DateOnly, meta["next_election"]); err != nil {
		return fmt.Errorf("next election: %w", err)
	}
	if g := meta["generation"]; g != "" {
		if st.Generation, err = strconv.ParseUint(g, 10, 64); err != nil {
			return fmt.Errorf("generation: %w", err)
		}
	}
	st.Phase = engine.Phase(meta["phase"])
	st.Speaker = agents.CharacterID(meta["speaker"])
	st.PlayerID = agents.CharacterID(meta["player_id"])
	for key, dst := range map[string]any{
		"speaker_candidates": &st.SpeakerCandidates,
		"government":         &st.Government,
		"results":            &st.Results,
		"pending_event":      &st.PendingEvent,
	} {
		if v, ok := meta[key]; ok && v != "" {
			if err := json.Unmarshal([]byte(v), dst); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	return nil
}

func (db *DB) loadCharacters() ([]*agents.Character, error) {
	var rows []characterRow
	if err := db.conn.Select(&rows, "SELECT * FROM characters ORDER BY rowid"); err != nil {
		return nil, err
	}
	out := make([]*agents.Character, 0, len(rows))
	for _, r := range rows {
		birth, err := time.Parse(time.DateOnly, r.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("character %s birth date: %w", r.ID, err)
		}
		c := &agents.Character{
			ID:                  agents.CharacterID(r.ID),
			Name:                r.Name,
			Ethnicity:           world.Ethnicity(r.Ethnicity),
			Region:              r.Region,
			SeatCode:            r.SeatCode,
			Alive:               r.Alive,
			BirthDate:           birth,
			Charisma:            r.Charisma,
			Influence:           r.Influence,
			Recognition:         r.Recognition,
			Ideology:            agents.Ideology{Economic: r.Economic, Governance: r.Governance},
			AffiliationID:       agents.AffiliationID(r.AffiliationID),
			IsMP:                r.IsMP,
			IsPlayer:            r.IsPlayer,
			IsAffiliationLeader: r.IsAffiliationLeader,
		}
		if err := json.Unmarshal([]byte(r.HistoryJSON), &c.History); err != nil {
			return nil, fmt.Errorf("character %s history: %w", r.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (db *DB) loadParties() ([]*social.Party, error) {
	var rows []partyRow
	if err := db.conn.Select(&rows, "SELECT * FROM parties ORDER BY rowid"); err != nil {
		return nil, err
	}
	out := make([]*social.Party, 0, len(rows))
	for _, r := range rows {
		p := &social.Party{
			ID:             social.PartyID(r.ID),
			Name:           r.Name,
			Color:          r.Color,
			Unity:          r.Unity,
			Ideology:       agents.Ideology{Economic: r.Economic, Governance: r.Governance},
			EthnicityFocus: world.Ethnicity(r.EthnicityFocus),
			LeaderID:       agents.CharacterID(r.LeaderID),
			DeputyLeaderID: agents.CharacterID(r.DeputyLeaderID),
		}
		err := errors.Join(
			json.Unmarshal([]byte(r.AffiliationsJSON), &p.AffiliationIDs),
			json.Unmarshal([]byte(r.BranchesJSON), &p.Branches),
			json.Unmarshal([]byte(r.ContestedJSON), &p.ContestedSeats),
		)
		if err != nil {
			return nil, fmt.Errorf("party %s: %w", r.ID, err)
		}
		if p.ContestedSeats == nil {
			p.ContestedSeats = make(map[string]social.ContestedSeat)
		}
		out = append(out, p)
	}
	return out, nil
}

func (db *DB) loadAlliances() ([]*social.Alliance, error) {
	var rows []allianceRow
	if err := db.conn.Select(&rows, "SELECT * FROM alliances ORDER BY rowid"); err != nil {
		return nil, err
	}
	out := make([]*social.Alliance, 0, len(rows))
	for _, r := range rows {
		a := &social.Alliance{ID: r.ID, Name: r.Name, Kind: social.AllianceKind(r.Kind)}
		if err := json.Unmarshal([]byte(r.MembersJSON), &a.MemberPartyIDs); err != nil {
			return nil, fmt.Errorf("alliance %s: %w", r.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// RecentChronicle returns the most recent N log entries, newest first.
func (db *DB) RecentChronicle(limit int) ([]engine.LogEntry, error) {
	var rows []chronicleRow
	err := db.conn.Select(&rows,
		"SELECT id, date, title, description, type FROM chronicle ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]engine.LogEntry, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(time.DateOnly, r.Date)
		if err != nil {
			return nil, fmt.Errorf("chronicle %d: %w", r.ID, err)
		}
		out = append(out, engine.LogEntry{ID: r.ID, Date: date, Title: r.Title, Description: r.Description, Type: engine.LogType(r.Type)})
	}
	return out, nil
}

// ElectionHistory returns every stored election, oldest first.
func (db *DB) ElectionHistory() (election.History, error) {
	var blobs []string
	if err := db.conn.Select(&blobs, "SELECT entry_json FROM elections ORDER BY seq"); err != nil {
		return nil, err
	}
	out := make(election.History, 0, len(blobs))
	for i, b := range blobs {
		var e election.HistoryEntry
		if err := json.Unmarshal([]byte(b), &e); err != nil {
			return nil, fmt.Errorf("election %d: %w", i, err)
		}
		out = append(out, &e)
	}
	return out, nil
}
