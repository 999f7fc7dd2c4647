package client_test

import (
	"errors"
	"testing"

	"github.com/stashdb/go-stash/client"
)

func TestQueryExecuteRejectsNonPositiveIDs(t *testing.T) {
	t.Parallel()

	s := client.New()
	_, err := client.NewQuery(s, 0, 1).Execute()
	if !errors.Is(err, client.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}

	_, err = client.NewQuery(s, 1, 0).Execute()
	if !errors.Is(err, client.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
}
