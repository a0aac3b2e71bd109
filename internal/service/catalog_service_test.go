package service_test

import (
	"context"
	"errors"
	"testing"

	"cantina/internal/access"
	"cantina/internal/apperror"
	"cantina/internal/config"
	"cantina/internal/dto"
	"cantina/internal/model"
	"cantina/internal/repository"
	"cantina/internal/service"
	"cantina/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func strPtr(s string) *string { return &s }

func TestStudentService_CreateRetagsForNonAdmins(t *testing.T) {
	store := repository.NewEntityStore(testutil.NewDB(t))
	svc := service.NewStudentService(store)
	ctx := context.Background()

	resp, err := svc.Create(ctx, scopeOf(t, access.RoleWizard), dto.CreateStudentRequest{Name: " Ana ", School: "WizKids"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", resp.Name)
	assert.Equal(t, "Wizard", resp.School)
	assert.True(t, resp.Active)
	assert.True(t, resp.Balance.IsZero())

	resp, err = svc.Create(ctx, access.Admin(), dto.CreateStudentRequest{Name: "Bia"})
	require.NoError(t, err)
	assert.Equal(t, string(model.DefaultSchool), resp.School)

	resp, err = svc.Create(ctx, access.Admin(), dto.CreateStudentRequest{Name: "Caio", School: "WizKids"})
	require.NoError(t, err)
	assert.Equal(t, "WizKids", resp.School)

	_, err = svc.Create(ctx, access.Admin(), dto.CreateStudentRequest{Name: "   "})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestStudentService_ScopedListAndAccess(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewStudentService(repository.NewEntityStore(db))
	ctx := context.Background()
	wizard := scopeOf(t, access.RoleWizard)

	own := testutil.SeedStudent(t, db, "Ana", model.SchoolWizard, "0")
	kid := testutil.SeedStudent(t, db, "Kid", model.SchoolWizKids, "0")

	list, err := svc.List(ctx, wizard, dto.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, own.ID.String(), list[0].ID)

	all, err := svc.List(ctx, access.Admin(), dto.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.Get(ctx, wizard, kid.ID)
	assert.True(t, errors.Is(err, apperror.ErrAccessDenied))
	err = svc.Delete(ctx, wizard, kid.ID)
	assert.True(t, errors.Is(err, apperror.ErrAccessDenied))

	_, err = svc.Update(ctx, wizard, own.ID, dto.UpdateStudentRequest{School: strPtr("WizKids")})
	assert.True(t, errors.Is(err, apperror.ErrAccessDenied))

	moved, err := svc.Update(ctx, access.Admin(), own.ID, dto.UpdateStudentRequest{Name: strPtr("Ana Maria"), School: strPtr("WizKids")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", moved.Name)
	assert.Equal(t, "WizKids", moved.School)
}

func TestUpdate_BlankSchoolKeepsCurrentSchool(t *testing.T) {
	db := testutil.NewDB(t)
	store := repository.NewEntityStore(db)
	students := service.NewStudentService(store)
	products := service.NewProductService(store)
	ctx := context.Background()
	wizard := scopeOf(t, access.RoleWizard)

	st := testutil.SeedStudent(t, db, "Ana", model.SchoolWizard, "0")
	p := testutil.SeedProduct(t, db, "Juice", model.SchoolWizard, "4", "2", 3)

	for _, blank := range []string{"", "   "} {
		sr, err := students.Update(ctx, wizard, st.ID, dto.UpdateStudentRequest{Name: strPtr("Ana Maria"), School: strPtr(blank)})
		require.NoError(t, err)
		assert.Equal(t, "Wizard", sr.School)

		pr, err := products.Update(ctx, wizard, p.ID, dto.UpdateProductRequest{School: strPtr(blank)})
		require.NoError(t, err)
		assert.Equal(t, "Wizard", pr.School)
	}

	var storedStudent model.Student
	require.NoError(t, db.First(&storedStudent, "id = ?", st.ID).Error)
	assert.Equal(t, model.SchoolWizard, storedStudent.School)
	assert.Equal(t, "Ana Maria", storedStudent.Name)
	var storedProduct model.Product
	require.NoError(t, db.First(&storedProduct, "id = ?", p.ID).Error)
	assert.Equal(t, model.SchoolWizard, storedProduct.School)

	// The wizard scope still sees both records.
	_, err := students.Get(ctx, wizard, st.ID)
	assert.NoError(t, err)
	_, err = products.Get(ctx, wizard, p.ID)
	assert.NoError(t, err)

	_, err = students.Update(ctx, access.Admin(), st.ID, dto.UpdateStudentRequest{School: strPtr("Hogwarts")})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestStudentService_SetActiveAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewStudentService(repository.NewEntityStore(db))
	ctx := context.Background()
	s := testutil.SeedStudent(t, db, "Ana", model.SchoolWizard, "5")

	resp, err := svc.SetActive(ctx, access.Admin(), s.ID, false)
	require.NoError(t, err)
	assert.False(t, resp.Active)

	active, err := svc.List(ctx, access.Admin(), dto.StudentFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, svc.Delete(ctx, access.Admin(), s.ID))
	_, err = svc.Get(ctx, access.Admin(), s.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	err = svc.Delete(ctx, access.Admin(), s.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestProductService_CreateDefaultsAndInitialMovement(t *testing.T) {
	store := repository.NewEntityStore(testutil.NewDB(t))
	svc := service.NewProductService(store)
	ctx := context.Background()

	resp, err := svc.Create(ctx, scopeOf(t, access.RoleWizKids), dto.CreateProductRequest{
		Name:      "Juice",
		Price:     decimal.RequireFromString("4.499"),
		CostPrice: decimal.RequireFromString("2"),
		Stock:     12,
		School:    "Wizard",
	})
	require.NoError(t, err)
	assert.Equal(t, "WizKids", resp.School)
	assert.Equal(t, model.DefaultCategory, resp.Category)
	assert.Equal(t, model.DefaultMinStock, resp.MinStock)
	assert.True(t, decimal.RequireFromString("4.50").Equal(resp.Price))

	id := uuid.MustParse(resp.ID)
	moves, err := svc.Movements(ctx, access.Admin(), id, dto.StockMovementFilter{})
	require.NoError(t, err)
	require.Len(t, moves.Data, 1)
	assert.Equal(t, model.MovementInitial, moves.Data[0].Kind)
	assert.Equal(t, 12, moves.Data[0].StockAfter)
	assert.Equal(t, 1, moves.TotalPages)

	_, err = svc.Create(ctx, access.Admin(), dto.CreateProductRequest{Name: "Bad", Price: decimal.NewFromInt(-1)})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestProductService_UpdateNeverTouchesStock(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewProductService(repository.NewEntityStore(db))
	ctx := context.Background()
	p := testutil.SeedProduct(t, db, "Juice", model.SchoolWizard, "4", "2", 9)

	price := decimal.RequireFromString("5.25")
	minStock := 2
	resp, err := svc.Update(ctx, access.Admin(), p.ID, dto.UpdateProductRequest{
		Price:    &price,
		MinStock: &minStock,
		Category: strPtr("Bebidas"),
	})
	require.NoError(t, err)
	assert.Equal(t, 9, resp.Stock)
	assert.Equal(t, "Bebidas", resp.Category)
	assert.False(t, resp.LowStock)

	got, err := svc.Get(ctx, access.Admin(), p.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(got.Price))
	assert.Equal(t, 9, got.Stock)
}

func TestProductService_ScopeAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewProductService(repository.NewEntityStore(db))
	ctx := context.Background()
	wizard := scopeOf(t, access.RoleWizard)
	own := testutil.SeedProduct(t, db, "Pen", model.SchoolWizard, "2", "1", 3)
	kids := testutil.SeedProduct(t, db, "Toy", model.SchoolWizKids, "2", "1", 3)

	list, err := svc.List(ctx, wizard, dto.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, own.ID.String(), list[0].ID)

	err = svc.Delete(ctx, wizard, kids.ID)
	assert.True(t, errors.Is(err, apperror.ErrAccessDenied))

	require.NoError(t, svc.Delete(ctx, wizard, own.ID))
	_, err = svc.Get(ctx, access.Admin(), own.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestSettingsService(t *testing.T) {
	svc := service.NewSettingsService(repository.NewEntityStore(testutil.NewDB(t)))
	ctx := context.Background()

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15).Equal(got.OperationalTaxRatePercent))

	rate := decimal.NewFromInt(12)
	_, err = svc.Update(ctx, scopeOf(t, access.RoleWizard), dto.UpdateSettingsRequest{OperationalTaxRatePercent: &rate})
	assert.True(t, errors.Is(err, apperror.ErrAccessDenied))

	tooHigh := decimal.NewFromInt(101)
	_, err = svc.Update(ctx, access.Admin(), dto.UpdateSettingsRequest{OperationalTaxRatePercent: &tooHigh})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	_, err = svc.Update(ctx, access.Admin(), dto.UpdateSettingsRequest{})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	updated, err := svc.Update(ctx, access.Admin(), dto.UpdateSettingsRequest{OperationalTaxRatePercent: &rate})
	require.NoError(t, err)
	assert.True(t, rate.Equal(updated.OperationalTaxRatePercent))

	got, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, rate.Equal(got.OperationalTaxRatePercent))
}

func TestReportService_ScopedFinancials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reports := service.NewReportService(f.store)
	own := testutil.SeedStudent(t, f.db, "Ana", model.SchoolWizard, "0")
	kid := testutil.SeedStudent(t, f.db, "Kid", model.SchoolWizKids, "0")
	pen := testutil.SeedProduct(t, f.db, "Pen", model.SchoolWizard, "10", "4", 10)
	toy := testutil.SeedProduct(t, f.db, "Toy", model.SchoolWizKids, "20", "5", 10)

	_, err := f.ledger.Purchase(ctx, access.Admin(), own.ID, purchaseOf("20", model.MethodCash, line(pen, 2)))
	require.NoError(t, err)
	_, err = f.ledger.Purchase(ctx, access.Admin(), kid.ID, purchaseOf("20", model.MethodCash, line(toy, 1)))
	require.NoError(t, err)

	fin, err := reports.Financial(ctx, scopeOf(t, access.RoleWizard))
	require.NoError(t, err)
	assertDec(t, "20", fin.GrossRevenue)
	assertDec(t, "8", fin.CostOfGoodsSold)
	assertDec(t, "3", fin.OperationalCost)
	assertDec(t, "9", fin.NetProfit)
	require.Len(t, fin.UnitMargins, 1)
	assert.Equal(t, "Pen", fin.UnitMargins[0].Name)

	all, err := reports.Financial(ctx, access.Admin())
	require.NoError(t, err)
	assertDec(t, "40", all.GrossRevenue)

	dash, err := reports.Dashboard(ctx, scopeOf(t, access.RoleWizKids))
	require.NoError(t, err)
	assert.Equal(t, 1, dash.Students)
	assertDec(t, "20", dash.TotalSales)
	require.Len(t, dash.Recent, 1)
	assert.Equal(t, kid.ID.String(), dash.Recent[0].StudentID)

	stock, err := reports.Stock(ctx, scopeOf(t, access.RoleWizard))
	require.NoError(t, err)
	assert.Equal(t, 8, stock.TotalUnits)
	assertDec(t, "80", stock.StockValue)

	low, err := reports.LowStock(ctx, access.Admin())
	require.NoError(t, err)
	assert.Empty(t, low)
}

func TestAuthService_LoginAndRefresh(t *testing.T) {
	store := repository.NewEntityStore(testutil.NewDB(t))
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("segredo1"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Users.Create(ctx, &model.User{
		Username: "wizard", Name: "Cantina Wizard", PasswordHash: string(hash), Role: access.RoleWizard, Active: true,
	}))

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1, JWTRefreshHours: 2}
	svc := service.NewAuthService(store.Users, cfg)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "wizard", Password: "errada"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	resp, err := svc.Login(ctx, dto.LoginRequest{Username: "wizard", Password: "segredo1"})
	require.NoError(t, err)
	assert.Equal(t, "wizard", resp.User.Role)
	assert.Equal(t, "Wizard", resp.User.School)
	assert.Equal(t, 3600, resp.ExpiresIn)

	refreshed, err := svc.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}
