package storage

import "fmt"

// Driver names accepted by Open
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the backend selected by driver. dataPath is used by the file
// and sqlite drivers, databaseURL by postgres.
func Open(driver, dataPath, databaseURL string) (Backend, error) {
	switch driver {
	case "", DriverFile:
		return NewFile(dataPath)
	case DriverSQLite:
		return NewSQLite(dataPath)
	case DriverPostgres:
		if databaseURL == "" {
			return nil, fmt.Errorf("postgres driver requires a database url")
		}
		return NewPostgres(databaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
