package membership

import (
	"context"
	"errors"
	"testing"
)

type fakePayments struct {
	subscription *Subscription
	subErr       error
	product      *Product
	productErr   error

	subFetches     []string
	productFetches []string
}

func (f *fakePayments) FetchSubscription(_ context.Context, id string) (*Subscription, error) {
	f.subFetches = append(f.subFetches, id)
	return f.subscription, f.subErr
}

func (f *fakePayments) FetchProduct(_ context.Context, id string) (*Product, error) {
	f.productFetches = append(f.productFetches, id)
	return f.product, f.productErr
}

type profileWrite struct {
	key    string
	fields ProfileUpdate
}

type fakeProfiles struct {
	profile *Profile
	err     error

	byUserID     []profileWrite
	byCustomerID []profileWrite
}

func (f *fakeProfiles) UpdateProfileByUserID(_ context.Context, userID string, fields ProfileUpdate) (*Profile, error) {
	f.byUserID = append(f.byUserID, profileWrite{key: userID, fields: fields})
	return f.profile, f.err
}

func (f *fakeProfiles) UpdateProfileByCustomerID(_ context.Context, customerID string, fields ProfileUpdate) (*Profile, error) {
	f.byCustomerID = append(f.byCustomerID, profileWrite{key: customerID, fields: fields})
	return f.profile, f.err
}

func TestBindPaymentIdentifiers(t *testing.T) {
	payments := &fakePayments{
		subscription: &Subscription{ID: "sub_fetched", CustomerID: "cus_1", Status: StatusActive},
	}
	profiles := &fakeProfiles{
		profile: &Profile{UserID: "u_1", Membership: TierFree},
	}
	r := NewReconciler(payments, profiles)

	got, err := r.BindPaymentIdentifiers(context.Background(), "u_1", "sub_from_event", "cus_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u_1" {
		t.Errorf("profile user = %q, want u_1", got.UserID)
	}

	if len(profiles.byUserID) != 1 {
		t.Fatalf("expected one profile write, got %d", len(profiles.byUserID))
	}
	write := profiles.byUserID[0]
	if write.key != "u_1" {
		t.Errorf("write keyed by %q, want u_1", write.key)
	}
	// The stored subscription ID must come from the provider fetch, not the
	// incoming event.
	if write.fields.PaymentSubscriptionID == nil || *write.fields.PaymentSubscriptionID != "sub_fetched" {
		t.Errorf("stored subscription ID = %v, want sub_fetched", write.fields.PaymentSubscriptionID)
	}
	if write.fields.PaymentCustomerID == nil || *write.fields.PaymentCustomerID != "cus_1" {
		t.Errorf("stored customer ID = %v, want cus_1", write.fields.PaymentCustomerID)
	}
	if write.fields.Membership != nil {
		t.Error("bind must not touch the membership tier")
	}
}

func TestBindPaymentIdentifiersValidation(t *testing.T) {
	payments := &fakePayments{}
	profiles := &fakeProfiles{}
	r := NewReconciler(payments, profiles)

	tests := []struct {
		name                  string
		userID, subID, custID string
	}{
		{"missing user id", "", "sub_1", "cus_1"},
		{"missing subscription id", "u_1", "", "cus_1"},
		{"missing customer id", "u_1", "sub_1", ""},
		{"whitespace user id", "   ", "sub_1", "cus_1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.BindPaymentIdentifiers(context.Background(), tt.userID, tt.subID, tt.custID)
			if KindOf(err) != KindValidation {
				t.Fatalf("kind = %q, want %q (err: %v)", KindOf(err), KindValidation, err)
			}
		})
	}

	// Validation failures must short-circuit before any external call.
	if len(payments.subFetches) != 0 {
		t.Errorf("expected no subscription fetches, got %d", len(payments.subFetches))
	}
	if len(profiles.byUserID) != 0 {
		t.Errorf("expected no profile writes, got %d", len(profiles.byUserID))
	}
}

func TestBindPaymentIdentifiersSubscriptionFetchFails(t *testing.T) {
	payments := &fakePayments{subErr: errors.New("provider timeout")}
	profiles := &fakeProfiles{}
	r := NewReconciler(payments, profiles)

	_, err := r.BindPaymentIdentifiers(context.Background(), "u_1", "sub_1", "cus_1")
	if KindOf(err) != KindDependency {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindDependency)
	}
	if len(profiles.byUserID) != 0 {
		t.Error("profile must not be written after a failed fetch")
	}
}

func TestBindPaymentIdentifiersProfileMissing(t *testing.T) {
	payments := &fakePayments{
		subscription: &Subscription{ID: "sub_1", CustomerID: "cus_1", Status: StatusActive},
	}
	profiles := &fakeProfiles{profile: nil}
	r := NewReconciler(payments, profiles)

	_, err := r.BindPaymentIdentifiers(context.Background(), "u_missing", "sub_1", "cus_1")
	if KindOf(err) != KindPersistence {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindPersistence)
	}
}

func TestReconcileSubscriptionChangeActivePro(t *testing.T) {
	payments := &fakePayments{
		subscription: &Subscription{ID: "sub_1", CustomerID: "cus_1", Status: StatusActive},
		product:      &Product{ID: "prod_1", Metadata: map[string]string{"membership": "pro"}},
	}
	profiles := &fakeProfiles{
		profile: &Profile{UserID: "u_1", Membership: TierPro},
	}
	r := NewReconciler(payments, profiles)

	tier, err := r.ReconcileSubscriptionChange(context.Background(), "sub_1", "cus_1", "prod_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierPro {
		t.Errorf("tier = %q, want pro", tier)
	}

	if len(profiles.byCustomerID) != 1 {
		t.Fatalf("expected one profile write, got %d", len(profiles.byCustomerID))
	}
	write := profiles.byCustomerID[0]
	if write.key != "cus_1" {
		t.Errorf("write keyed by %q, want cus_1", write.key)
	}
	if write.fields.Membership == nil || *write.fields.Membership != TierPro {
		t.Errorf("stored tier = %v, want pro", write.fields.Membership)
	}
	if write.fields.PaymentSubscriptionID == nil || *write.fields.PaymentSubscriptionID != "sub_1" {
		t.Errorf("stored subscription ID = %v, want sub_1", write.fields.PaymentSubscriptionID)
	}
}

func TestReconcileSubscriptionChangeCanceledDropsToFree(t *testing.T) {
	payments := &fakePayments{
		subscription: &Subscription{ID: "sub_1", CustomerID: "cus_1", Status: StatusCanceled},
		product:      &Product{ID: "prod_1", Metadata: map[string]string{"membership": "pro"}},
	}
	profiles := &fakeProfiles{
		profile: &Profile{UserID: "u_1", Membership: TierFree},
	}
	r := NewReconciler(payments, profiles)

	tier, err := r.ReconcileSubscriptionChange(context.Background(), "sub_1", "cus_1", "prod_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierFree {
		t.Errorf("tier = %q, want free", tier)
	}
	write := profiles.byCustomerID[0]
	if write.fields.Membership == nil || *write.fields.Membership != TierFree {
		t.Errorf("stored tier = %v, want free", write.fields.Membership)
	}
}

func TestReconcileSubscriptionChangeUnrecognizedTier(t *testing.T) {
	payments := &fakePayments{
		subscription: &Subscription{ID: "sub_1", CustomerID: "cus_1", Status: StatusActive},
		product:      &Product{ID: "prod_1", Metadata: map[string]string{"membership": "enterprise"}},
	}
	profiles := &fakeProfiles{}
	r := NewReconciler(payments, profiles)

	_, err := r.ReconcileSubscriptionChange(context.Background(), "sub_1", "cus_1", "prod_1")
	if KindOf(err) != KindDataIntegrity {
		t.Fatalf("kind = %q, want %q (err: %v)", KindOf(err), KindDataIntegrity, err)
	}
	if len(profiles.byCustomerID) != 0 {
		t.Error("profile must not be written when the declared tier is unrecognized")
	}
}

func TestReconcileSubscriptionChangeSubscriptionFetchFails(t *testing.T) {
	payments := &fakePayments{subErr: errors.New("provider unavailable")}
	profiles := &fakeProfiles{}
	r := NewReconciler(payments, profiles)

	_, err := r.ReconcileSubscriptionChange(context.Background(), "sub_1", "cus_1", "prod_1")
	if KindOf(err) != KindDependency {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindDependency)
	}
	// No product fetch after the subscription fetch fails.
	if len(payments.productFetches) != 0 {
		t.Errorf("expected no product fetches, got %d", len(payments.productFetches))
	}
	if len(profiles.byCustomerID) != 0 {
		t.Error("profile must not be written after a failed fetch")
	}
}

func TestReconcileSubscriptionChangeProductMissingMetadata(t *testing.T) {
	payments := &fakePayments{
		subscription: &Subscription{ID: "sub_1", CustomerID: "cus_1", Status: StatusActive},
		product:      &Product{ID: "prod_1"},
	}
	profiles := &fakeProfiles{}
	r := NewReconciler(payments, profiles)

	_, err := r.ReconcileSubscriptionChange(context.Background(), "sub_1", "cus_1", "prod_1")
	if KindOf(err) != KindDependency {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindDependency)
	}
}

func TestReconcileSubscriptionChangeValidation(t *testing.T) {
	payments := &fakePayments{}
	profiles := &fakeProfiles{}
	r := NewReconciler(payments, profiles)

	_, err := r.ReconcileSubscriptionChange(context.Background(), "", "cus_1", "prod_1")
	if KindOf(err) != KindValidation {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindValidation)
	}
	_, err = r.ReconcileSubscriptionChange(context.Background(), "sub_1", "", "prod_1")
	if KindOf(err) != KindValidation {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindValidation)
	}
	_, err = r.ReconcileSubscriptionChange(context.Background(), "sub_1", "cus_1", "")
	if KindOf(err) != KindValidation {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindValidation)
	}
	if len(payments.subFetches) != 0 || len(payments.productFetches) != 0 {
		t.Error("validation failures must not reach the payment provider")
	}
}

func TestReconcileSubscriptionChangeNoProfileForCustomer(t *testing.T) {
	payments := &fakePayments{
		subscription: &Subscription{ID: "sub_1", CustomerID: "cus_ghost", Status: StatusActive},
		product:      &Product{ID: "prod_1", Metadata: map[string]string{"membership": "pro"}},
	}
	profiles := &fakeProfiles{profile: nil}
	r := NewReconciler(payments, profiles)

	_, err := r.ReconcileSubscriptionChange(context.Background(), "sub_1", "cus_ghost", "prod_1")
	if KindOf(err) != KindPersistence {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindPersistence)
	}
}
