package repository

import (
	"database/sql"

	"gorm.io/gorm"
)

// TxManager is the slice of *gorm.DB that services use to open
// transactions. *gorm.DB satisfies it directly; tests substitute a fake
// that invokes the callback with a nil tx (WithTx treats nil as "keep
// current binding").
type TxManager interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}
