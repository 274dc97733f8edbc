package database

import (
	"errors"

	"github.com/rs/zerolog/log"
	supa "github.com/supabase-community/supabase-go"
)

// NewSupabase creates a client for a hosted Supabase project. The service role
// key is required since bookings are written on behalf of staff, not end users.
func NewSupabase(url, serviceKey string) (*supa.Client, error) {
	if url == "" || serviceKey == "" {
		return nil, errors.New("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required")
	}

	client, err := supa.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", url).Msg("Supabase client configured")
	return client, nil
}
