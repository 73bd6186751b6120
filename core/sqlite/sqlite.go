// Package sqlite selects a SQLite driver at build time. The default
// build uses the pure Go modernc.org/sqlite driver so vellum needs no
// C toolchain; building with -tags cgo_sqlite (and CGO_ENABLED=1)
// swaps in mattn/go-sqlite3 instead.
//
// Always open databases through Open or OpenReadOnly rather than
// sql.Open: the registered driver name differs between the two builds.
package sqlite

import "database/sql"

// DriverName returns the name registered with database/sql by the
// active driver.
func DriverName() string {
	return driverName
}

// DriverType reports which implementation is compiled in:
// "purego" or "cgo".
func DriverType() string {
	return driverType
}

// IsCGO reports whether the mattn/go-sqlite3 driver is active.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database with the active driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens the database at path in read-only mode. The
// file: URI form works on both drivers.
func OpenReadOnly(path string) (*sql.DB, error) {
	return Open("file:" + path + "?mode=ro")
}

// Info describes the compiled-in driver, for the version command.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns the active driver configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
