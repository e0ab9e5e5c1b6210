package user

import "time"

const (
	RoleHost  = "host"
	RoleAdmin = "admin"

	HostStatusPending  = "pending"
	HostStatusApproved = "approved"
	HostStatusRejected = "rejected"
)

type User struct {
	ID                int       `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Email             string    `db:"email" json:"email"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	Role              string    `db:"role" json:"role"`
	HostStatus        string    `db:"host_status" json:"host_status"`
	BankAccountName   string    `db:"bank_account_name" json:"bank_account_name"`
	BankAccountNumber string    `db:"bank_account_number" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
