package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cantina/internal/access"
	"cantina/internal/apperror"
	"cantina/internal/dto"
	"cantina/internal/model"
	"cantina/internal/repository"
	"cantina/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	defaultPurchaseDescription = "Purchase"
	defaultDepositDescription  = "Deposit"
)

// LedgerService owns every operation that moves money or stock. Each one runs
// inside a single EntityStore.Atomic unit: all checks happen under row locks
// and nothing is written unless every check passes.
type LedgerService interface {
	Deposit(ctx context.Context, scope access.Scope, studentID uuid.UUID, req dto.DepositRequest) (*dto.LedgerResponse, error)
	Purchase(ctx context.Context, scope access.Scope, studentID uuid.UUID, req dto.PurchaseRequest) (*dto.LedgerResponse, error)
	ReverseTransaction(ctx context.Context, scope access.Scope, id uuid.UUID) error
	UpdateTransactionDescription(ctx context.Context, scope access.Scope, id uuid.UUID, description string) (*dto.TransactionResponse, error)
	GetTransaction(ctx context.Context, scope access.Scope, id uuid.UUID) (*dto.TransactionResponse, error)
	ListTransactions(ctx context.Context, scope access.Scope, filter dto.TransactionFilter) ([]dto.TransactionResponse, error)

	Restock(ctx context.Context, scope access.Scope, productID uuid.UUID, quantity int) (*dto.ProductResponse, error)
	BulkRestock(ctx context.Context, scope access.Scope, req dto.BulkRestockRequest) (*dto.BulkRestockResponse, error)
	ListInvoices(ctx context.Context, scope access.Scope, limit int) ([]dto.InvoiceResponse, error)
}

type ledgerService struct {
	store *repository.EntityStore
	jobs  JobDispatcher
}

// NewLedgerService wires the ledger. jobs may be nil.
func NewLedgerService(store *repository.EntityStore, jobs JobDispatcher) LedgerService {
	return &ledgerService{store: store, jobs: jobs}
}

// ── Deposit ──────────────────────────────────────────────────────────────────

func (s *ledgerService) Deposit(ctx context.Context, scope access.Scope, studentID uuid.UUID, req dto.DepositRequest) (*dto.LedgerResponse, error) {
	amount, err := positiveAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	method := model.PaymentMethod(req.Method)
	if !method.Valid() || method == model.MethodCredit {
		return nil, apperror.Validation("forma de deposito invalida %q", req.Method)
	}

	var (
		t       model.Transaction
		balance decimal.Decimal
	)
	err = s.store.Atomic(ctx, func(tx *repository.EntityStore) error {
		student, err := tx.Students.FindByIDForUpdate(ctx, studentID)
		if err != nil {
			return err
		}
		if err := scope.Check("aluno", student.School); err != nil {
			return err
		}

		t = model.Transaction{
			StudentID:   student.ID,
			StudentName: student.Name,
			Type:        model.TxDeposit,
			Amount:      amount,
			Method:      method,
			Description: defaultDepositDescription,
		}
		if err := tx.Transactions.Create(ctx, &t); err != nil {
			return err
		}
		student.Balance = student.Balance.Add(amount)
		balance = student.Balance
		return tx.Students.UpdateBalance(ctx, student)
	})
	if err != nil {
		return nil, err
	}
	return &dto.LedgerResponse{Transaction: transactionToResponse(&t), Balance: balance}, nil
}

// ── Purchase ─────────────────────────────────────────────────────────────────
// Locks the student, then every product in id order. Stock and funds are
// checked against the locked rows before any write; the stock decrement is
// also guarded in SQL. Low-stock alerts are enqueued only after commit.

type purchaseLine struct {
	productID uuid.UUID
	quantity  int
}

func (s *ledgerService) Purchase(ctx context.Context, scope access.Scope, studentID uuid.UUID, req dto.PurchaseRequest) (*dto.LedgerResponse, error) {
	amount, err := positiveAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	method := model.PaymentMethod(req.Method)
	if !method.Valid() {
		return nil, apperror.Validation("forma de pagamento invalida %q", req.Method)
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = defaultPurchaseDescription
	}
	lines, err := mergePurchaseItems(req.Items)
	if err != nil {
		return nil, err
	}

	var (
		t        model.Transaction
		balance  decimal.Decimal
		lowStock []worker.LowStockAlertPayload
	)
	err = s.store.Atomic(ctx, func(tx *repository.EntityStore) error {
		lowStock = lowStock[:0]

		student, err := tx.Students.FindByIDForUpdate(ctx, studentID)
		if err != nil {
			return err
		}
		if err := scope.Check("aluno", student.School); err != nil {
			return err
		}
		if !student.Active {
			return apperror.Validation("aluno %s esta inativo", student.Name)
		}

		ids := make([]uuid.UUID, len(lines))
		for i, l := range lines {
			ids[i] = l.productID
		}
		products, err := tx.Products.FindByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		for _, l := range lines {
			p, ok := products[l.productID]
			if !ok {
				return apperror.InsufficientStock("produto %s nao existe", l.productID)
			}
			if err := scope.Check("produto", p.School); err != nil {
				return err
			}
			if p.Stock < l.quantity {
				return apperror.InsufficientStock("estoque insuficiente de %s: %d disponiveis, %d pedidos", p.Name, p.Stock, l.quantity)
			}
		}
		if method == model.MethodCredit && student.Balance.LessThan(amount) {
			return apperror.InsufficientFunds("saldo %s menor que %s", student.Balance.StringFixed(2), amount.StringFixed(2))
		}

		t = model.Transaction{
			StudentID:   student.ID,
			StudentName: student.Name,
			Type:        model.TxPurchase,
			Amount:      amount,
			Method:      method,
			Description: description,
		}
		for _, l := range lines {
			t.Items = append(t.Items, model.TransactionItem{
				ProductID:   l.productID,
				ProductName: products[l.productID].Name,
				Quantity:    l.quantity,
			})
		}
		if err := tx.Transactions.Create(ctx, &t); err != nil {
			return err
		}

		for _, l := range lines {
			p := products[l.productID]
			if err := moveStock(ctx, tx, p, -l.quantity, model.MovementPurchase, &t.ID); err != nil {
				return err
			}
			if p.LowStock() {
				lowStock = append(lowStock, worker.LowStockAlertPayload{
					ProductID:   p.ID.String(),
					ProductName: p.Name,
					School:      string(p.School),
					Stock:       p.Stock,
					MinStock:    p.MinStock,
				})
			}
		}

		if method == model.MethodCredit {
			student.Balance = student.Balance.Sub(amount)
			if err := tx.Students.UpdateBalance(ctx, student); err != nil {
				return err
			}
		}
		balance = student.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, alert := range lowStock {
		s.enqueueLowStock(ctx, alert)
	}
	return &dto.LedgerResponse{Transaction: transactionToResponse(&t), Balance: balance}, nil
}

// mergePurchaseItems sums quantities of repeated products, keeping the order
// in which each product first appeared.
func mergePurchaseItems(items []dto.PurchaseItemRequest) ([]purchaseLine, error) {
	var lines []purchaseLine
	index := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		id, err := parseID("produto", it.ProductID)
		if err != nil {
			return nil, err
		}
		if it.Quantity <= 0 {
			return nil, apperror.Validation("quantidade do produto %s deve ser positiva", id)
		}
		if it.Quantity > maxLineQuantity {
			return nil, apperror.Validation("quantidade do produto %s excede o limite de %d", id, maxLineQuantity)
		}
		if i, ok := index[id]; ok {
			if lines[i].quantity > maxLineQuantity-it.Quantity {
				return nil, apperror.Validation("quantidade do produto %s excede o limite de %d", id, maxLineQuantity)
			}
			lines[i].quantity += it.Quantity
			continue
		}
		index[id] = len(lines)
		lines = append(lines, purchaseLine{productID: id, quantity: it.Quantity})
	}
	return lines, nil
}

// ── ReverseTransaction ───────────────────────────────────────────────────────
// Compensating undo: the balance effect and any sold stock are put back, then
// the record is removed. A second reversal of the same id finds nothing.

func (s *ledgerService) ReverseTransaction(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	return s.store.Atomic(ctx, func(tx *repository.EntityStore) error {
		// Read without a lock to learn the owner, then lock in the usual
		// order (student, transaction, products).
		peek, err := tx.Transactions.FindByID(ctx, id)
		if err != nil {
			return err
		}
		student, err := tx.Students.FindAnyForUpdate(ctx, peek.StudentID)
		if err != nil {
			return err
		}
		if err := scope.Check("transacao", student.School); err != nil {
			return err
		}
		t, err := tx.Transactions.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if effect := t.BalanceEffect(); !effect.IsZero() {
			student.Balance = student.Balance.Sub(effect)
			if err := tx.Students.UpdateBalance(ctx, student); err != nil {
				return err
			}
		}

		if t.Type == model.TxPurchase && len(t.Items) > 0 {
			ids := make([]uuid.UUID, len(t.Items))
			for i, it := range t.Items {
				ids[i] = it.ProductID
			}
			products, err := tx.Products.FindByIDsForUpdate(ctx, ids)
			if err != nil {
				return err
			}
			for _, it := range t.Items {
				p, ok := products[it.ProductID]
				if !ok {
					log.Warn().
						Str("transaction_id", t.ID.String()).
						Str("product_id", it.ProductID.String()).
						Msg("ledger: product no longer exists, stock not restored")
					continue
				}
				if err := moveStock(ctx, tx, p, it.Quantity, model.MovementReversal, &t.ID); err != nil {
					return err
				}
			}
		}

		return tx.Transactions.Delete(ctx, t)
	})
}

// ── Queries and edits ────────────────────────────────────────────────────────

func (s *ledgerService) UpdateTransactionDescription(ctx context.Context, scope access.Scope, id uuid.UUID, description string) (*dto.TransactionResponse, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperror.Validation("descricao nao pode ser vazia")
	}
	t, err := s.findTransaction(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Transactions.UpdateDescription(ctx, id, description); err != nil {
		return nil, err
	}
	t.Description = description
	resp := transactionToResponse(t)
	return &resp, nil
}

func (s *ledgerService) GetTransaction(ctx context.Context, scope access.Scope, id uuid.UUID) (*dto.TransactionResponse, error) {
	t, err := s.findTransaction(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	resp := transactionToResponse(t)
	return &resp, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, scope access.Scope, filter dto.TransactionFilter) ([]dto.TransactionResponse, error) {
	f := repository.TransactionFilter{
		Type:  model.TxType(filter.Type),
		From:  filter.From,
		To:    filter.To,
		Limit: filter.Limit,
	}
	if filter.StudentID != "" {
		id, err := parseID("aluno", filter.StudentID)
		if err != nil {
			return nil, err
		}
		f.StudentID = &id
	}
	txs, err := s.store.Transactions.List(ctx, f, scope.Transactions())
	if err != nil {
		return nil, err
	}
	resp := make([]dto.TransactionResponse, len(txs))
	for i := range txs {
		resp[i] = transactionToResponse(&txs[i])
	}
	return resp, nil
}

// findTransaction loads a transaction and checks it against the owner's
// school. Owners that were deleted still count.
func (s *ledgerService) findTransaction(ctx context.Context, scope access.Scope, id uuid.UUID) (*model.Transaction, error) {
	t, err := s.store.Transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope.IsAdmin() {
		return t, nil
	}
	visible, err := s.store.Transactions.List(ctx, repository.TransactionFilter{StudentID: &t.StudentID, Limit: 1}, scope.Transactions())
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return nil, apperror.AccessDenied("transacao pertence a outra escola")
	}
	return t, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

// moveStock applies delta to p and records the movement. A guard rejection
// means the row vanished or would go negative.
func moveStock(ctx context.Context, tx *repository.EntityStore, p *model.Product, delta int, kind string, ref *uuid.UUID) error {
	before := p.Stock
	if err := tx.Products.AdjustStock(ctx, p, delta); err != nil {
		if errors.Is(err, repository.ErrStockGuard) {
			return apperror.InsufficientStock("estoque de %s nao pode variar %d", p.Name, delta)
		}
		return fmt.Errorf("adjust stock of %s: %w", p.ID, err)
	}
	return tx.Movements.Create(ctx, &model.StockMovement{
		ProductID:   p.ID,
		Kind:        kind,
		Delta:       delta,
		StockBefore: before,
		StockAfter:  p.Stock,
		ReferenceID: ref,
	})
}

func (s *ledgerService) enqueueLowStock(ctx context.Context, p worker.LowStockAlertPayload) {
	if s.jobs == nil {
		log.Info().Str("product", p.ProductName).Int("stock", p.Stock).Msg("ledger: low stock")
		return
	}
	if err := s.jobs.EnqueueLowStockAlert(context.WithoutCancel(ctx), p); err != nil {
		log.Warn().Err(err).Str("product_id", p.ProductID).Msg("ledger: failed to enqueue low stock alert")
	}
}
