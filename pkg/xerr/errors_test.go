package xerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsCodeSeesThroughWrapping(t *testing.T) {
	base := Newf(InsufficientFunds, "spend %d exceeds balance", 10)
	wrapped := fmt.Errorf("apply action: %w", base)
	if !IsCode(wrapped, InsufficientFunds) {
		t.Fatalf("code lost through wrapping")
	}
	if IsCode(wrapped, InsufficientFreeFunds) {
		t.Fatalf("matched the wrong code")
	}
	if IsCode(errors.New("plain"), InsufficientFunds) {
		t.Fatalf("matched a plain error")
	}
}

func TestMapErrMsg(t *testing.T) {
	if MapErrMsg(RecordNotFound) == "" {
		t.Fatalf("known code should map to a message")
	}
	if MapErrMsg(99999) == "" {
		t.Fatalf("unknown code should fall back to a default message")
	}
}

func TestNewErrCode(t *testing.T) {
	err := NewErrCode(ActionOverflow)
	var ce *CodeError
	if !errors.As(err, &ce) || ce.Code != ActionOverflow {
		t.Fatalf("got %v", err)
	}
	if ce.Error() == "" {
		t.Fatalf("empty message")
	}
}
