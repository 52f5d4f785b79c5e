// Package inmemdb keeps the payment ledger in memory, for tests and local runs without a database.
package inmemdb

import (
	"sync"

	"github.com/parroquia/portal/core/payment"
)

type (
	DB struct {
		payment *paymentTable
	}

	paymentTable struct {
		mutex sync.RWMutex
		table map[string]*payment.Entry
	}
)

func Open() *DB {
	return &DB{
		payment: &paymentTable{table: make(map[string]*payment.Entry)},
	}
}
