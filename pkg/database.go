package dragon

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	_ "modernc.org/sqlite"
)

type VariableEntry struct {
	Name  string `db:"Name"`
	Value string `db:"Value"`
}

// ConnectToDatabase opens the variables database: a MySQL server or, with
// driver "sqlite", a local file.
func ConnectToDatabase(config Configuration) (*sqlx.DB, error) {
	switch config.DBDriver {
	case "mysql", "":
		port := "3306"
		dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", config.User, config.Passwd, config.Host, port, config.DBName)
		return sqlx.Connect("mysql", dbURI)
	case "sqlite":
		return sqlx.Connect("sqlite", config.DBFile)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.DBDriver)
	}
}

// LoadVariablesFromDB reads every variable valid for runNumber. When ranges
// overlap, the row with the highest MinRun wins.
func LoadVariablesFromDB(db *sqlx.DB, runNumber int) (MapVariables, error) {
	query := "SELECT Name, Value FROM Variables WHERE MinRun <= ? and MaxRun >= ? ORDER BY MinRun"

	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading variables for run %d from database", runNumber)
		logger.Info(message, "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return nil, errMessage
	}
	defer rows.Close()

	variables := make(MapVariables)
	for rows.Next() {
		result := VariableEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return nil, errMessage
		}
		variables[result.Name] = result.Value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	return variables, nil
}

// CreateVariablesTable creates the Variables table if it does not exist.
func CreateVariablesTable(db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS Variables (
		Name   VARCHAR(255) NOT NULL,
		Value  TEXT NOT NULL,
		MinRun INTEGER NOT NULL,
		MaxRun INTEGER NOT NULL
	)`
	_, err := db.Exec(schema)
	return err
}

func InsertVariable(db *sqlx.DB, name string, value string, minRun int, maxRun int) error {
	_, err := db.Exec("INSERT INTO Variables (Name, Value, MinRun, MaxRun) VALUES (?, ?, ?, ?)",
		name, value, minRun, maxRun)
	return err
}
