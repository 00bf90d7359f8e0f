package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
	users "github.com/dshinde1318/Milk-Management-System-backend/internal/users/domain"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/users/infrastructure/memory"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(memory.NewUserRepository(), []byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func createUser(t *testing.T, svc *Service, role auth.Role, mobile string) *users.User {
	t.Helper()
	user, err := svc.Create(context.Background(), auth.RoleAdmin, CreateInput{
		Name:     "Test " + string(role),
		Mobile:   mobile,
		Role:     role,
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("create %s: %v", role, err)
	}
	return user
}

func TestCreate_HashesPasswordAndSanitizes(t *testing.T) {
	svc := newService(t)

	user := createUser(t, svc, auth.RoleSeller, "9000000001")
	if user.PasswordHash != "" {
		t.Fatalf("password hash leaked in response")
	}
	if !user.IsActive {
		t.Fatalf("new account should start active")
	}
}

func TestCreate_MobileMustBeUnique(t *testing.T) {
	svc := newService(t)
	createUser(t, svc, auth.RoleSeller, "9000000001")

	_, err := svc.Create(context.Background(), auth.RoleAdmin, CreateInput{
		Name: "Dup", Mobile: "9000000001", Role: auth.RoleBuyer, Password: "secret123",
	})
	if !errors.Is(err, users.ErrMobileConflict) {
		t.Fatalf("expected ErrMobileConflict, got %v", err)
	}
}

func TestCreate_RequiresAdmin(t *testing.T) {
	svc := newService(t)
	_, err := svc.Create(context.Background(), auth.RoleSeller, CreateInput{
		Name: "X", Mobile: "9000000001", Role: auth.RoleBuyer, Password: "secret123",
	})
	if !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateBuyer_ForcesBuyerRole(t *testing.T) {
	svc := newService(t)

	user, err := svc.CreateBuyer(context.Background(), auth.RoleAdmin, CreateInput{
		Name: "Buyer", Mobile: "9000000002", Role: auth.RoleAdmin, Password: "secret123",
	})
	if err != nil {
		t.Fatalf("create buyer: %v", err)
	}
	if user.Role != auth.RoleBuyer {
		t.Fatalf("role = %s, want buyer", user.Role)
	}
}

func TestLogin_IssuesValidToken(t *testing.T) {
	svc := newService(t)
	created := createUser(t, svc, auth.RoleSeller, "9000000001")

	token, user, err := svc.Login(context.Background(), "9000000001", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != created.ID || user.PasswordHash != "" {
		t.Fatalf("login response wrong: %+v", user)
	}

	claims, err := auth.ParseJWT(token, []byte("test-secret"))
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != created.ID || claims.Role != string(auth.RoleSeller) {
		t.Fatalf("claims wrong: %+v", claims)
	}
}

func TestLogin_WrongPasswordAndUnknownMobileLookAlike(t *testing.T) {
	svc := newService(t)
	createUser(t, svc, auth.RoleSeller, "9000000001")

	_, _, errWrong := svc.Login(context.Background(), "9000000001", "nope")
	_, _, errUnknown := svc.Login(context.Background(), "9999999999", "secret123")
	if !errors.Is(errWrong, users.ErrInvalidCredentials) || !errors.Is(errUnknown, users.ErrInvalidCredentials) {
		t.Fatalf("credential failures differ: %v vs %v", errWrong, errUnknown)
	}
}

func TestLogin_DeactivatedAccountRejected(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	user := createUser(t, svc, auth.RoleBuyer, "9000000001")

	if _, err := svc.ToggleActive(ctx, auth.RoleAdmin, user.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	_, _, err := svc.Login(ctx, "9000000001", "secret123")
	if !errors.Is(err, users.ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestUpdate_MobileCollisionRejected(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	createUser(t, svc, auth.RoleSeller, "9000000001")
	other := createUser(t, svc, auth.RoleBuyer, "9000000002")

	taken := "9000000001"
	_, err := svc.Update(ctx, auth.RoleAdmin, other.ID, UpdatePatch{Mobile: &taken})
	if !errors.Is(err, users.ErrMobileConflict) {
		t.Fatalf("expected ErrMobileConflict, got %v", err)
	}
}

func TestIdentityChecks_RoleAndActiveGated(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seller := createUser(t, svc, auth.RoleSeller, "9000000001")
	buyer := createUser(t, svc, auth.RoleBuyer, "9000000002")

	if ok, _ := svc.SellerExists(ctx, seller.ID); !ok {
		t.Fatalf("seller not recognized")
	}
	if ok, _ := svc.SellerExists(ctx, buyer.ID); ok {
		t.Fatalf("buyer passed the seller check")
	}
	if ok, _ := svc.BuyerExists(ctx, buyer.ID); !ok {
		t.Fatalf("buyer not recognized")
	}
	if ok, _ := svc.BuyerExists(ctx, "missing"); ok {
		t.Fatalf("unknown id passed the buyer check")
	}

	if _, err := svc.ToggleActive(ctx, auth.RoleAdmin, buyer.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if ok, _ := svc.BuyerExists(ctx, buyer.ID); ok {
		t.Fatalf("deactivated buyer passed the check")
	}
}

func TestList_SearchMatchesNameAndMobile(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	createUser(t, svc, auth.RoleSeller, "9000000001")
	buyer, err := svc.Create(ctx, auth.RoleAdmin, CreateInput{
		Name: "Asha Patil", Mobile: "8123456789", Role: auth.RoleBuyer, Password: "secret123",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	byName, err := svc.List(ctx, auth.RoleAdmin, users.ListFilter{Search: "asha"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byName) != 1 || byName[0].ID != buyer.ID {
		t.Fatalf("name search wrong: %+v", byName)
	}

	byMobile, err := svc.List(ctx, auth.RoleAdmin, users.ListFilter{Search: "8123"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byMobile) != 1 || byMobile[0].ID != buyer.ID {
		t.Fatalf("mobile search wrong: %+v", byMobile)
	}
}
