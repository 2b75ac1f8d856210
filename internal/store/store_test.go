package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/uftp-network/uftp-engine/internal/database"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// fakeDB answers every QueryRow with the same row.
type fakeDB struct {
	row     fakeRow
	lastSQL string
	args    []any
}

func (f *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.lastSQL = sql
	f.args = args
	return f.row
}

// fakeRow scans a stored message or returns err.
type fakeRow struct {
	msg database.UftpMessage
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[3].(*string) = r.msg.MessageType
	*dest[9].(*[]byte) = r.msg.Payload
	return nil
}

func revocation() *uftp.FlexOfferRevocation {
	return &uftp.FlexOfferRevocation{
		PayloadHeader: uftp.PayloadHeader{
			Version:         "3.0.0",
			SenderDomain:    "agr.example.com",
			RecipientDomain: "dso.example.com",
			TimeStamp:       time.Date(2022, 3, 26, 12, 0, 0, 0, time.UTC),
			MessageID:       "rev-1",
			ConversationID:  "conv-1",
		},
		FlexOfferMessageID: "offer-1",
	}
}

func TestCreateParams(t *testing.T) {
	sender := uftp.Participant{Domain: "agr.example.com", Role: uftp.RoleAGR}

	tests := []struct {
		name          string
		env           uftp.Envelope
		wantDirection string
		wantReference string
		wantAudit     bool
	}{
		{
			name:          "incoming revocation keeps wire forms",
			env:           uftp.NewIncomingEnvelope(sender, revocation(), "<SignedMessage/>", "<FlexOfferRevocation/>"),
			wantDirection: "incoming",
			wantReference: "offer-1",
			wantAudit:     true,
		},
		{
			name: "outgoing response references the request",
			env: uftp.NewOutgoingEnvelope(sender, &uftp.TestMessageResponse{
				ResponseHeader:       uftp.ResponseHeader{PayloadHeader: revocation().PayloadHeader, Result: uftp.ResultAccepted},
				TestMessageMessageID: "test-1",
			}),
			wantDirection: "outgoing",
			wantReference: "test-1",
		},
		{
			name:          "test message refers to nothing",
			env:           uftp.NewOutgoingEnvelope(sender, &uftp.TestMessage{PayloadHeader: revocation().PayloadHeader}),
			wantDirection: "outgoing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := createParams(tt.env)
			if err != nil {
				t.Fatalf("createParams: %v", err)
			}
			if params.Direction != tt.wantDirection {
				t.Errorf("Direction = %s, want %s", params.Direction, tt.wantDirection)
			}
			if params.ReferenceMessageID.Valid != (tt.wantReference != "") || params.ReferenceMessageID.String != tt.wantReference {
				t.Errorf("ReferenceMessageID = %+v, want %q", params.ReferenceMessageID, tt.wantReference)
			}
			if params.SignedXml.Valid != tt.wantAudit || params.PayloadXml.Valid != tt.wantAudit {
				t.Errorf("audit columns valid = %v/%v, want %v", params.SignedXml.Valid, params.PayloadXml.Valid, tt.wantAudit)
			}
			if params.MessageID != "rev-1" || params.ConversationID != "conv-1" {
				t.Errorf("header not copied: %+v", params)
			}
		})
	}
}

func TestFindMapsNoRowsToNotFound(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	s := New(database.New(db))
	ctx := context.Background()

	if _, err := s.FindDuplicateMessage(ctx, "m-1", "a", "b"); !errors.Is(err, uftp.ErrMessageNotFound) {
		t.Errorf("FindDuplicateMessage err = %v, want ErrMessageNotFound", err)
	}
	if _, err := s.FindReferencedMessage(ctx, uftp.MessageReference{MessageID: "m-1"}); !errors.Is(err, uftp.ErrMessageNotFound) {
		t.Errorf("FindReferencedMessage err = %v, want ErrMessageNotFound", err)
	}
	if _, err := s.FindFlexRevocation(ctx, "conv-1", "offer-1", "a", "b"); !errors.Is(err, uftp.ErrMessageNotFound) {
		t.Errorf("FindFlexRevocation err = %v, want ErrMessageNotFound", err)
	}
}

func TestFindWrapsDatabaseErrors(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: errors.New("connection reset")}}
	s := New(database.New(db))

	_, err := s.FindDuplicateMessage(context.Background(), "m-1", "a", "b")
	var uftpErr *uftp.UftpError
	if !errors.As(err, &uftpErr) || uftpErr.Code() != uftp.ErrCodeInternal {
		t.Errorf("err = %v, want internal uftp error", err)
	}
}

func TestFindFlexRevocationDecodesPayload(t *testing.T) {
	payload, err := uftp.Canonicalize(revocation())
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	db := &fakeDB{row: fakeRow{msg: database.UftpMessage{MessageType: string(uftp.TypeFlexOfferRevocation), Payload: payload}}}
	s := New(database.New(db))

	rev, err := s.FindFlexRevocation(context.Background(), "conv-1", "offer-1", "agr.example.com", "dso.example.com")
	if err != nil {
		t.Fatalf("FindFlexRevocation: %v", err)
	}
	if rev.MessageID != "rev-1" || rev.FlexOfferMessageID != "offer-1" {
		t.Errorf("unexpected revocation %+v", rev)
	}

	// the offer id is bound as a text parameter
	if len(db.args) != 4 || db.args[0] != "conv-1" {
		t.Errorf("unexpected query args %v", db.args)
	}
}

func TestSaveMapsUniqueViolation(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: &pgconn.PgError{Code: uniqueViolation}}}
	s := New(database.New(db))

	env := uftp.NewOutgoingEnvelope(uftp.Participant{Domain: "agr.example.com", Role: uftp.RoleAGR}, revocation())
	if err := s.Save(context.Background(), env); !errors.Is(err, ErrAlreadyStored) {
		t.Errorf("Save err = %v, want ErrAlreadyStored", err)
	}
}
