package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	go_sqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

type LedgerContext string

const (
	DBContextURL       LedgerContext = "ledger-backend-url"
	DBContextTolerance LedgerContext = "ledger-value-tolerance"
)

func config() *gorm.Config {
	return &gorm.Config{
		Logger: newLogger(log.Logger),
		// Generated timestamps are always UTC
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
	}
}

// Connect opens the SQLite database at dsn, migrates it and sets it as DB.
func Connect(dsn string) error {
	// SQLite cannot alter columns and copies tables during migrations,
	// which fails with enforced foreign keys
	db, err := gorm.Open(sqlite.Open(dsn), config())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	err = migrate(db)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}
	sqlDB.Close()

	db, err = gorm.Open(sqlite.Open(dsn+"?_pragma=foreign_keys(1)"), config())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// A single connection serializes all writers. This prevents SQLITE_BUSY
	// errors and makes every allotment transaction exclusive.
	return use(db, 1)
}

// ConnectPostgres opens a PostgreSQL database. Allotments on PostgreSQL
// lock the import item and allotment rows with SELECT ... FOR UPDATE.
func ConnectPostgres(dsn string) error {
	db, err := gorm.Open(postgres.Open(dsn), config())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	err = migrate(db)
	if err != nil {
		return err
	}

	return use(db, 25)
}

// use configures the connection pool and the error callbacks of db and sets it as DB.
func use(db *gorm.DB, maxOpen int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetMaxIdleConns(min(maxOpen, 5))
	sqlDB.SetMaxOpenConns(maxOpen)

	err = registerCallbacks(db)
	if err != nil {
		return err
	}

	DB = db
	return nil
}

func registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()

	for _, c := range []struct {
		processor interface {
			Register(string, func(*gorm.DB)) error
		}
		name string
		fn   func(*gorm.DB)
	}{
		{cb.Query().After("*"), "ledger:after_query", queryCallback},
		{cb.Query().After("*"), "ledger:after_query_general", generalCallback},
		{cb.Create().After("*"), "ledger:after_create", createUpdateCallback},
		{cb.Create().After("*"), "ledger:after_create_general", generalCallback},
		{cb.Update().After("*"), "ledger:after_update", createUpdateCallback},
		{cb.Update().After("*"), "ledger:after_update_general", generalCallback},
		{cb.Delete().After("*"), "ledger:after_delete_general", generalCallback},
	} {
		err := c.processor.Register(c.name, c.fn)
		if err != nil {
			return err
		}
	}

	return nil
}

// queryCallback replaces the generic "no record" error with a more user
// friendly one
func queryCallback(db *gorm.DB) {
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		// Use the table name as information about the type of resource
		// and replace "_" with "[space]"
		name := strings.ReplaceAll(db.Statement.Table, "_", " ")

		// Replace pluralized "ies" with "y"
		match := regexp.MustCompile("ies$")
		name = match.ReplaceAllString(name, "y")

		// Remove plural "s"
		name = strings.TrimRight(name, "s")

		db.Error = fmt.Errorf("%w %s matching your query", ErrResourceNotFound, name)
	}
}

// uniqueViolations maps the sqlite and postgres messages for unique index
// violations to errors that can be shown to users.
var uniqueViolations = []struct {
	sqlite   string
	postgres string
	err      error
}{
	{"UNIQUE constraint failed: licenses.number", `"license_number"`, ErrLicenseNumberNotUnique},
	{"UNIQUE constraint failed: import_items.license_id, import_items.serial_number", `"item_serial_license"`, ErrItemSerialNotUnique},
	{"UNIQUE constraint failed: allotment_lines.item_id, allotment_lines.allotment_id", `"allotment_line_item_allotment"`, ErrAllotmentLineNotUnique},
}

// createUpdateCallback inspects errors returned by the database for create
// and update calls and replaces them with user friendly ones
func createUpdateCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	msg := db.Error.Error()
	for _, v := range uniqueViolations {
		if strings.Contains(msg, v.sqlite) || (strings.Contains(msg, "duplicate key value") && strings.Contains(msg, v.postgres)) {
			db.Error = v.err
			return
		}
	}
}

// generalCallback handles unspecified errors.
//
// For these errors, we cannot provide the user with a helpful message.
// Instead, the error is logged and we return a general message to users.
func generalCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	// "sql: database is closed" is hard-coded in the sql module
	if db.Error.Error() == "sql: database is closed" || reflect.TypeOf(db.Error) == reflect.TypeOf(&go_sqlite.Error{}) {
		log.Error().Msgf("%T: %v", db.Error, db.Error.Error())
		db.Error = ErrGeneral

		return
	}
}

// migrate migrates all models to the schema defined in the code.
func migrate(db *gorm.DB) (err error) {
	err = db.AutoMigrate(License{}, ImportItem{}, Allotment{}, AllotmentLine{})
	if err != nil {
		return fmt.Errorf("error during DB migration: %w", err)
	}

	return nil
}
