package repository

import "github.com/google/uuid"

func newCartID() string {
	return "crt_" + uuid.NewString()
}

func newOrderID() string {
	return "ord_" + uuid.NewString()
}
