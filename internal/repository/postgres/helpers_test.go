package postgres

import (
	"time"

	"toolrental-backend/internal/utils"
)

func mustDate(s string) time.Time {
	t, err := utils.ParseDateTime(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}
