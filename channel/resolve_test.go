package channel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func TestNewSource_Exclusivity(t *testing.T) {
	fresh := NewFreshSource("mail.example.com", "ops@example.com")

	testCases := []struct {
		name      string
		fresh     *FreshSource
		cloneFrom string
		expErr    bool
	}{
		{name: "both", fresh: fresh, cloneFrom: "Ops Email", expErr: true},
		{name: "neither", fresh: nil, cloneFrom: "", expErr: true},
		{name: "fresh only", fresh: fresh, cloneFrom: ""},
		{name: "clone only", fresh: nil, cloneFrom: "Ops Email"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			src, err := NewSource(tc.fresh, tc.cloneFrom)
			if tc.expErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if errors.Cause(err) != ErrInvalidConfig {
					t.Fatalf("expected ErrInvalidConfig cause, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if src == nil {
				t.Fatal("expected a source")
			}
		})
	}
}

func TestFreshSource_Validate(t *testing.T) {
	valid := func() *FreshSource {
		return NewFreshSource("mail.example.com", "ops@example.com")
	}

	testCases := []struct {
		name   string
		modify func(*FreshSource)
		expErr bool
	}{
		{name: "defaults", modify: func(*FreshSource) {}},
		{name: "no server", modify: func(s *FreshSource) { s.Server = "" }, expErr: true},
		{name: "port too large", modify: func(s *FreshSource) { s.Port = 65536 }, expErr: true},
		{name: "negative port", modify: func(s *FreshSource) { s.Port = -1 }, expErr: true},
		{name: "port zero", modify: func(s *FreshSource) { s.Port = 0 }},
		{name: "zero retry", modify: func(s *FreshSource) { s.RetryMinutes = 0 }, expErr: true},
		{name: "bad auth", modify: func(s *FreshSource) { s.Auth = "kerberos" }, expErr: true},
		{name: "ntlm auth", modify: func(s *FreshSource) { s.Auth = AuthNTLM }},
		{name: "bad from", modify: func(s *FreshSource) { s.From = "ops.example.com" }, expErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid()
			tc.modify(s)
			err := s.Validate()
			if tc.expErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if errors.Cause(err) != ErrInvalidConfig {
					t.Fatalf("expected ErrInvalidConfig cause, got %v", err)
				}
			} else if err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestFreshSource_Resolve(t *testing.T) {
	src := NewFreshSource("mail.example.com", "ops@example.com")
	settings, err := src.Resolve(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !settings.OwnsEndpoint {
		t.Fatal("fresh settings must own their endpoint")
	}
	ep := settings.Endpoint
	if ep.ID != uuid.Nil {
		t.Fatalf("fresh endpoint must not carry an identity, got %s", ep.ID)
	}
	if got, exp := ep.Port, 25; got != exp {
		t.Fatalf("unexpected port: got %d exp %d", got, exp)
	}
	if got, exp := ep.RetryInterval, 300; got != exp {
		t.Fatalf("unexpected retry interval: got %d exp %d", got, exp)
	}
	if got, exp := ep.Auth, AuthAnonymous; got != exp {
		t.Fatalf("unexpected auth mode: got %q exp %q", got, exp)
	}
	if settings.From != settings.ReplyTo {
		t.Fatalf("reply-to must mirror from: got %q and %q", settings.From, settings.ReplyTo)
	}
	if settings.BodyEncoding != "utf-8" || settings.SubjectEncoding != "utf-8" {
		t.Fatalf("unexpected encodings: got %q and %q", settings.BodyEncoding, settings.SubjectEncoding)
	}
}

func TestParseChannelID(t *testing.T) {
	testCases := []struct {
		name string
		ref  string
		isID bool
	}{
		{name: "canonical id", ref: "9f36f7d8-4c2e-4f0e-9d2b-6a1f0c5d1a2b", isID: true},
		{name: "display name", ref: "Ops Email", isID: false},
		{name: "braced id tolerated as name", ref: "{9f36f7d8-4c2e-4f0e-9d2b-6a1f0c5d1a2b}", isID: false},
		{name: "unhyphenated id tolerated as name", ref: "9f36f7d84c2e4f0e9d2b6a1f0c5d1a2b", isID: false},
		{name: "right length wrong chars", ref: "9f36f7d8-4c2e-4f0e-9d2b-6a1f0c5d1azz", isID: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := parseChannelID(tc.ref)
			if ok != tc.isID {
				t.Fatalf("unexpected classification for %q: got %v exp %v", tc.ref, ok, tc.isID)
			}
			if ok && id.String() != tc.ref {
				t.Fatalf("unexpected id: got %s exp %s", id, tc.ref)
			}
		})
	}
}

func TestCloneSource_Resolve(t *testing.T) {
	epID := uuid.MustParse("2d0e8e3e-9f1a-4f6a-8a3e-0c2b1d4e5f60")
	existing := &ExistingChannel{
		ID:              uuid.MustParse("9f36f7d8-4c2e-4f0e-9d2b-6a1f0c5d1a2b"),
		DisplayName:     "Ops Email",
		BodyEncoding:    "utf-8",
		SubjectEncoding: "utf-8",
		From:            "scom@example.com",
		ReplyTo:         "noreply@example.com",
		Endpoint: &DeliveryEndpoint{
			ID:            epID,
			DisplayName:   "SMTP mail.example.com:25",
			Server:        "mail.example.com",
			Port:          25,
			Auth:          AuthAnonymous,
			RetryInterval: 300,
		},
	}
	m := &mockManagement{channels: []*ExistingChannel{existing}}

	t.Run("by name", func(t *testing.T) {
		settings, err := CloneSource{From: "Ops Email"}.Resolve(m)
		if err != nil {
			t.Fatal(err)
		}
		if settings.OwnsEndpoint {
			t.Fatal("cloned settings must borrow the endpoint")
		}
		if settings.Endpoint != existing.Endpoint {
			t.Fatal("clone must reuse the endpoint by reference, not copy it")
		}
		if settings.Endpoint.ID != epID {
			t.Fatalf("unexpected endpoint identity: got %s exp %s", settings.Endpoint.ID, epID)
		}
		exp := Settings{
			Description:     Description("Ops Email", "", ""),
			BodyEncoding:    "utf-8",
			SubjectEncoding: "utf-8",
			From:            "scom@example.com",
			ReplyTo:         "noreply@example.com",
			Endpoint:        existing.Endpoint,
		}
		if diff := cmp.Diff(exp, settings); diff != "" {
			t.Fatalf("unexpected settings: %s", diff)
		}
	})

	t.Run("by id", func(t *testing.T) {
		settings, err := CloneSource{From: existing.ID.String()}.Resolve(m)
		if err != nil {
			t.Fatal(err)
		}
		if got, exp := m.byIDCalls, 1; got != exp {
			t.Fatalf("unexpected id lookups: got %d exp %d", got, exp)
		}
		if settings.Endpoint != existing.Endpoint {
			t.Fatal("clone must reuse the endpoint by reference")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := CloneSource{From: "No Such Channel"}.Resolve(m)
		if errors.Cause(err) != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
