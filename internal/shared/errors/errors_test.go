package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestGetType(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorType
	}{
		{NotFoundf("entity %d", 3), ErrorTypeNotFound},
		{Validation("bad"), ErrorTypeValidation},
		{Conflictf("taken"), ErrorTypeConflict},
		{Forbidden("no"), ErrorTypeForbidden},
		{fmt.Errorf("wrapped: %w", Unauthorized("who")), ErrorTypeUnauthorized},
		{errors.New("plain"), ErrorTypeInternal},
	}
	for _, tc := range cases {
		if got := GetType(tc.err); got != tc.want {
			t.Fatalf("%v: expected %s, got %s", tc.err, tc.want, got)
		}
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := WrapInternal("failed to load entity", sql.ErrNoRows)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if err.Error() != "failed to load entity: sql: no rows in result set" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
