package inmemdb

import (
	"sync"

	"github.com/trezcool/alama/core/gradebook"
	"github.com/trezcool/alama/core/user"
)

type (
	// DB is a process-local store, used in tests and with the "memory" storage engine.
	DB struct {
		user      *userTable
		gradebook *gradebookTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	gradebookTable struct {
		provisioned map[string]bool
		table       map[string][]gradebook.Entry
		mutex       sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		gradebook: &gradebookTable{
			provisioned: make(map[string]bool),
			table:       make(map[string][]gradebook.Entry),
		},
	}
}
