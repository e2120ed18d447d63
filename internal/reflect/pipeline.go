package reflect

import (
	"fmt"
	"log/slog"

	"github.com/roasbeef/skillreflect/internal/db"
	"github.com/roasbeef/skillreflect/internal/ledger"
	"github.com/roasbeef/skillreflect/internal/notify"
	"github.com/roasbeef/skillreflect/internal/oracle"
	"github.com/roasbeef/skillreflect/internal/signal"
	"github.com/roasbeef/skillreflect/internal/skilldoc"
)

// Pipeline is a fully wired engine plus the resources it owns.
type Pipeline struct {
	*Engine

	dbStore  *db.SqliteStore
	notifier notify.Sink
}

// Close releases the database and any notification connection.
func (p *Pipeline) Close() error {
	p.notifier.Close()
	return p.dbStore.Close()
}

// BuildPipeline constructs the full pipeline from configuration: ledger
// database, transcript detector, model council, skill updater, and the
// optional event sink.
func BuildPipeline(cfg Config, approver Approver,
	log *slog.Logger) (*Pipeline, error) {

	if log == nil {
		log = slog.Default()
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = db.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	skillsDir := cfg.SkillsDir
	if skillsDir == "" {
		var err error
		skillsDir, err = skilldoc.DefaultSkillsDir()
		if err != nil {
			return nil, err
		}
	}

	dbStore, err := db.NewSqliteStore(&db.SqliteConfig{
		DatabaseFileName: dbPath,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	detectCfg := signal.DefaultDetectorConfig()
	if cfg.RepeatThreshold > 0 {
		detectCfg.RepeatThreshold = cfg.RepeatThreshold
	}
	if cfg.LookbackWindow > 0 {
		detectCfg.LookbackWindow = cfg.LookbackWindow
	}
	reader := signal.NewTranscriptReader(cfg.TranscriptBase, 0)
	detector := signal.NewDetector(detectCfg, reader, log)

	oracleCfg := oracle.DefaultConfig()
	if len(cfg.Models) > 0 {
		oracleCfg.Models = cfg.Models
	}
	if cfg.OracleTimeout > 0 {
		oracleCfg.CallTimeout = cfg.OracleTimeout
	}
	oracleCfg.APIKey = cfg.APIKey
	oracleCfg.BaseURL = cfg.BaseURL
	council := oracle.NewCouncil(oracleCfg, log)

	updater := skilldoc.NewUpdater(
		skilldoc.NewStore(skillsDir), cfg.MergeStrategy, log,
	)

	var sink notify.Sink = notify.NoopSink{}
	if cfg.NatsURL != "" {
		sink = notify.NewNatsSink(cfg.NatsURL, log)
	}

	engine := NewEngine(EngineConfig{
		Ledger:     ledger.NewStore(dbStore.Store),
		Detector:   detector,
		Analyzer:   council,
		Updater:    updater,
		Notifier:   sink,
		Approver:   approver,
		ReviewerID: cfg.ReviewerID,
		Logger:     log,
	})

	return &Pipeline{
		Engine:   engine,
		dbStore:  dbStore,
		notifier: sink,
	}, nil
}
