package customer

import "sync"

// Current is the customer using the kiosk right now.
type Current struct {
	Name        *string  `json:"name"`
	CPF         *string  `json:"cpf"`
	OrderNumber *string  `json:"orderNumber"`
	OrderTotal  *float64 `json:"orderTotal"`
}

// Session holds the single in-progress kiosk customer.
type Session struct {
	mu  sync.RWMutex
	cur Current
}

func NewSession() *Session { return &Session{} }

func (s *Session) Get() Current {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *Session) SetName(name string) Current {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Name = &name
	return s.cur
}

func (s *Session) Reset() {
	s.mu.Lock()
	s.cur = Current{}
	s.mu.Unlock()
}

// SetOrder records the order the current customer just placed.
func (s *Session) SetOrder(number string, total float64) Current {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.OrderNumber = &number
	s.cur.OrderTotal = &total
	return s.cur
}
