package services

import "time"

// Direction of a sibling move.
type Direction string

const (
	MoveUp   Direction = "up"
	MoveDown Direction = "down"
)

func validDirection(d Direction) bool { return d == MoveUp || d == MoveDown }

// OrderingStore is the slice of persistence the ordering engine needs:
// ordered sibling reads plus single-row position writes.
type OrderingStore interface {
	GetBlock(id string) (*Block, error)
	ListBlocks(formID string) ([]*Block, error)
	UpdateBlockPosition(id string, order int) error

	GetQuestion(id string) (*Question, error)
	ListQuestionsByBlock(blockID string) ([]*Question, error)
	UpdateQuestionPosition(id string, order int) error

	AddAudit(entry AuditEntry)
}

// OrderingService moves a sibling one position up or down by swapping order
// values with its neighbor. It never resequences the whole set: an effective
// move writes exactly two rows, an edge move writes none. Concurrent moves
// touching the same item are not serialized here; any interleaving still
// yields a valid total order because each swap only permutes existing values.
type OrderingService struct {
	store OrderingStore
	now   func() time.Time
}

func NewOrderingService(store OrderingStore) *OrderingService {
	return &OrderingService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// MoveBlock swaps the block's order with its neighbor in the given
// direction. A nil result with nil error means the move was a no-op (the
// block is already first or last).
func (s *OrderingService) MoveBlock(blockID string, dir Direction, actor string) ([]*Block, error) {
	if !validDirection(dir) {
		return nil, NewInvalidError("direction must be up or down")
	}
	b, err := s.store.GetBlock(blockID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, NewNotFoundError("block not found")
	}
	siblings, err := s.store.ListBlocks(b.FormID)
	if err != nil {
		return nil, err
	}
	sortBlocks(siblings)
	idx := -1
	for i, sb := range siblings {
		if sb.ID == blockID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, NewNotFoundError("block not found")
	}
	nidx := neighborIndex(idx, len(siblings), dir)
	if nidx < 0 {
		return nil, nil
	}
	cur, nb := siblings[idx], siblings[nidx]
	cur.Order, nb.Order = nb.Order, cur.Order
	if err := s.store.UpdateBlockPosition(cur.ID, cur.Order); err != nil {
		return nil, err
	}
	if err := s.store.UpdateBlockPosition(nb.ID, nb.Order); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "move_block", Target: blockID, Note: string(dir)})
	return []*Block{cur, nb}, nil
}

// MoveQuestion swaps the question's order with its neighbor within the same
// block. Same no-op semantics as MoveBlock.
func (s *OrderingService) MoveQuestion(questionID string, dir Direction, actor string) ([]*Question, error) {
	if !validDirection(dir) {
		return nil, NewInvalidError("direction must be up or down")
	}
	q, err := s.store.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	siblings, err := s.store.ListQuestionsByBlock(q.BlockID)
	if err != nil {
		return nil, err
	}
	sortQuestions(siblings)
	idx := -1
	for i, sq := range siblings {
		if sq.ID == questionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, NewNotFoundError("question not found")
	}
	nidx := neighborIndex(idx, len(siblings), dir)
	if nidx < 0 {
		return nil, nil
	}
	cur, nq := siblings[idx], siblings[nidx]
	cur.Order, nq.Order = nq.Order, cur.Order
	if err := s.store.UpdateQuestionPosition(cur.ID, cur.Order); err != nil {
		return nil, err
	}
	if err := s.store.UpdateQuestionPosition(nq.ID, nq.Order); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "move_question", Target: questionID, Note: string(dir)})
	return []*Question{cur, nq}, nil
}

// neighborIndex returns the adjacent index in the move direction, or -1 when
// the item already sits at that edge.
func neighborIndex(idx, n int, dir Direction) int {
	if dir == MoveUp {
		if idx == 0 {
			return -1
		}
		return idx - 1
	}
	if idx == n-1 {
		return -1
	}
	return idx + 1
}
