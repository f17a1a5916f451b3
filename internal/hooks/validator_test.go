package hooks

import "testing"

func TestValidatorAcceptsValidPayloads(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator failed: %v", err)
	}

	cases := []struct {
		hook string
		body string
	}{
		{HookGameEvent, `{"trigger":"action:raid","player":{"id":"p1","name":"Player 1","karma":10}}`},
		{HookGameEvent, `{"trigger":"poll:vote","player":{"id":"p1"},"data":{"pollId":"poll:1","option":"A"}}`},
		{HookKarmaChange, `{"player":{"id":"p1","karma":600}}`},
		{HookPlayerJoin, `{"playerId":"p1","faction":"Red"}`},
		{HookVote, `{"author":"p1"}`},
	}
	for _, c := range cases {
		if err := v.Validate(c.hook, []byte(c.body)); err != nil {
			t.Errorf("Expected %s payload to validate, got %v", c.hook, err)
		}
	}
}

func TestValidatorRejectsInvalidPayloads(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator failed: %v", err)
	}

	cases := []struct {
		hook string
		body string
	}{
		{HookGameEvent, `{"player":{"id":"p1"}}`},         // missing trigger
		{HookGameEvent, `{"trigger":"x","player":{}}`},    // missing player id
		{HookKarmaChange, `{"player":{"id":"p1"}}`},       // missing karma
		{HookPlayerJoin, `{"faction":"Red"}`},             // missing playerId
		{HookVote, `{}`},                                  // missing author
		{HookVote, `not json`},                            // malformed body
	}
	for _, c := range cases {
		if err := v.Validate(c.hook, []byte(c.body)); err == nil {
			t.Errorf("Expected %s payload %q to be rejected", c.hook, c.body)
		}
	}

	if err := v.Validate("unknown_hook", []byte(`{}`)); err == nil {
		t.Error("Expected an unknown hook name to be rejected")
	}
}
