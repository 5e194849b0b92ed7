package ledger

import (
	"errors"
	"sync"
	"testing"
)

type recordingSaver struct {
	mu    sync.Mutex
	saved []int
	err   error
}

func (s *recordingSaver) SaveBalance(b int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, b)
	return s.err
}

func TestLedgerSequence(t *testing.T) {
	gameOvers := 0
	l := New(DefaultBalance, WithGameOver(func() { gameOvers++ }))

	if err := l.AddPoints(10); err != nil {
		t.Fatalf("AddPoints(10) error = %v", err)
	}
	if got := l.Balance(); got != 60 {
		t.Fatalf("Balance() = %d, want 60", got)
	}
	if b, err := l.SpendPoints(25); err != nil || b != 35 {
		t.Fatalf("SpendPoints(25) = %d, %v, want 35, nil", b, err)
	}
	if _, err := l.SpendPoints(40); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("SpendPoints(40) error = %v, want ErrInsufficientFunds", err)
	}
	if got := l.Balance(); got != 35 {
		t.Fatalf("Balance() after failed spend = %d, want 35", got)
	}
	if gameOvers != 0 {
		t.Fatalf("game over raised early")
	}
	if b, err := l.SpendPoints(35); err != nil || b != 0 {
		t.Fatalf("SpendPoints(35) = %d, %v, want 0, nil", b, err)
	}
	if gameOvers != 1 {
		t.Fatalf("game over raised %d times, want 1", gameOvers)
	}
	if !l.GameOver() {
		t.Fatal("GameOver() = false at zero balance")
	}
	if _, err := l.SpendPoints(1); !errors.Is(err, ErrGameOver) {
		t.Fatalf("SpendPoints(1) error = %v, want ErrGameOver", err)
	}
	if gameOvers != 1 {
		t.Fatalf("failed spend raised game over again")
	}
}

func TestLedgerInvalidAmounts(t *testing.T) {
	tests := []struct {
		name string
		op   func(*Ledger) error
	}{
		{name: "add zero", op: func(l *Ledger) error { return l.AddPoints(0) }},
		{name: "add negative", op: func(l *Ledger) error { return l.AddPoints(-5) }},
		{name: "spend zero", op: func(l *Ledger) error { _, err := l.SpendPoints(0); return err }},
		{name: "spend negative", op: func(l *Ledger) error { _, err := l.SpendPoints(-1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSaver{}
			l := New(50, WithSaver(s))
			if err := tt.op(l); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("error = %v, want ErrInvalidAmount", err)
			}
			if l.Balance() != 50 {
				t.Errorf("Balance() = %d, want 50", l.Balance())
			}
			if len(s.saved) != 0 {
				t.Errorf("saved %v on failure", s.saved)
			}
		})
	}
}

func TestLedgerGameOverBeforeAmountCheck(t *testing.T) {
	l := New(0)
	if _, err := l.SpendPoints(0); !errors.Is(err, ErrGameOver) {
		t.Errorf("SpendPoints(0) at zero = %v, want ErrGameOver", err)
	}
	if err := l.AddPoints(10); err != nil {
		t.Errorf("AddPoints at zero = %v, want nil", err)
	}
}

func TestLedgerPersistsAndSurvivesSaveErrors(t *testing.T) {
	s := &recordingSaver{err: errors.New("disk full")}
	l := New(50, WithSaver(s))
	if err := l.AddPoints(5); err != nil {
		t.Fatalf("AddPoints error = %v, want nil despite save failure", err)
	}
	if _, err := l.SpendPoints(15); err != nil {
		t.Fatalf("SpendPoints error = %v", err)
	}
	if want := []int{55, 40}; len(s.saved) != 2 || s.saved[0] != want[0] || s.saved[1] != want[1] {
		t.Errorf("saved = %v, want %v", s.saved, want)
	}
}

func TestLedgerReset(t *testing.T) {
	l := New(25)
	if _, err := l.SpendPoints(25); err != nil {
		t.Fatal(err)
	}
	l.Reset(DefaultBalance)
	if l.GameOver() || l.Balance() != DefaultBalance {
		t.Errorf("after Reset balance = %d, gameOver = %v", l.Balance(), l.GameOver())
	}
}

func TestLedgerGameOverListenerCanReadBalance(t *testing.T) {
	var l *Ledger
	seen := -1
	l = New(10, WithGameOver(func() { seen = l.Balance() }))
	if _, err := l.SpendPoints(10); err != nil {
		t.Fatal(err)
	}
	if seen != 0 {
		t.Errorf("listener saw balance %d, want 0", seen)
	}
}

func TestLedgerConcurrentSpendsNeverGoNegative(t *testing.T) {
	l := New(100)
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.SpendPoints(3); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if ok != 33 || l.Balance() != 1 {
		t.Errorf("successful spends = %d, balance = %d, want 33 and 1", ok, l.Balance())
	}
}
