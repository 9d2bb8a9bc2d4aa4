package inmemdb

import (
	"sync"

	"github.com/trezcool/shule/core/account"
)

type (
	DB struct {
		account *accountTable
	}

	accountTable struct {
		table map[string]*account.Account
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		account: &accountTable{table: make(map[string]*account.Account)},
	}
}
