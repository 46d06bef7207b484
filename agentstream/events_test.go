package agentstream

import "testing"

func TestMarshalToken(t *testing.T) {
	data, err := Marshal(TokenEvent{Token: "hello"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"type":"token","token":"hello"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestMarshalError(t *testing.T) {
	data, err := Marshal(ErrorEvent{Message: "rate limited"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"type":"error","error":"rate limited"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestMarshalDone(t *testing.T) {
	data, err := Marshal(DoneEvent{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"type":"done"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestEventTypes(t *testing.T) {
	if (TokenEvent{}).Type() != EventTypeToken {
		t.Error("TokenEvent has wrong type")
	}
	if (ErrorEvent{}).Type() != EventTypeError {
		t.Error("ErrorEvent has wrong type")
	}
	if (DoneEvent{}).Type() != EventTypeDone {
		t.Error("DoneEvent has wrong type")
	}
}
