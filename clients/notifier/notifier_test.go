package notifier

import (
	"errors"
	"testing"
	"time"
)

// mockNotifier is a test helper that implements Notifier interface
type mockNotifier struct {
	whales      []WhaleAlert
	copies      []CopyAlert
	closeErr    error
	closeCalled bool
}

func (m *mockNotifier) SendWhaleAlert(alert WhaleAlert) {
	m.whales = append(m.whales, alert)
}

func (m *mockNotifier) SendCopyAlert(alert CopyAlert) {
	m.copies = append(m.copies, alert)
}

func (m *mockNotifier) Close() error {
	m.closeCalled = true
	return m.closeErr
}

func TestNewMultiNotifier_FiltersNil(t *testing.T) {
	mock1 := &mockNotifier{}
	mock2 := &mockNotifier{}

	mn := NewMultiNotifier(mock1, nil, mock2, nil)

	if mn.Count() != 2 {
		t.Errorf("expected 2 notifiers, got %d", mn.Count())
	}
}

func TestMultiNotifier_SendWhaleAlert(t *testing.T) {
	mock1 := &mockNotifier{}
	mock2 := &mockNotifier{}

	mn := NewMultiNotifier(mock1, mock2)

	alert := WhaleAlert{
		TraderName:  "BigFish",
		Side:        "BUY",
		Shares:      50000,
		Price:       0.42,
		Value:       21000,
		MarketTitle: "Test Market",
	}

	mn.SendWhaleAlert(alert)

	if len(mock1.whales) != 1 {
		t.Errorf("expected 1 alert for mock1, got %d", len(mock1.whales))
	}
	if len(mock2.whales) != 1 {
		t.Errorf("expected 1 alert for mock2, got %d", len(mock2.whales))
	}
	if mock1.whales[0].TraderName != "BigFish" {
		t.Errorf("expected TraderName 'BigFish', got %s", mock1.whales[0].TraderName)
	}
}

func TestMultiNotifier_SendCopyAlert(t *testing.T) {
	mock := &mockNotifier{}
	mn := NewMultiNotifier(mock)

	mn.SendCopyAlert(CopyAlert{
		TraderAddress: "0xleader",
		CopySize:      6,
		Price:         0.60,
		CopyValue:     3.6,
		OrderID:       "order-1",
		Timestamp:     time.Now(),
	})

	if len(mock.copies) != 1 {
		t.Fatalf("expected 1 copy alert, got %d", len(mock.copies))
	}
	if mock.copies[0].CopyValue != 3.6 {
		t.Errorf("unexpected copy value: %f", mock.copies[0].CopyValue)
	}
}

func TestMultiNotifier_SendAlert_NoNotifiers(t *testing.T) {
	mn := NewMultiNotifier()

	// Should not panic
	mn.SendWhaleAlert(WhaleAlert{TraderName: "Test"})
	mn.SendCopyAlert(CopyAlert{TraderAddress: "0xtest"})
}

func TestMultiNotifier_Close_Success(t *testing.T) {
	mock1 := &mockNotifier{}
	mock2 := &mockNotifier{}

	mn := NewMultiNotifier(mock1, mock2)

	if err := mn.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !mock1.closeCalled {
		t.Error("expected mock1.Close() to be called")
	}
	if !mock2.closeCalled {
		t.Error("expected mock2.Close() to be called")
	}
}

func TestMultiNotifier_Close_WithError(t *testing.T) {
	expectedErr := errors.New("close error")
	mock1 := &mockNotifier{closeErr: expectedErr}
	mock2 := &mockNotifier{}

	mn := NewMultiNotifier(mock1, mock2)

	if err := mn.Close(); err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	// Both should still be called
	if !mock2.closeCalled {
		t.Error("expected mock2.Close() to be called")
	}
}
