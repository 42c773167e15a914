package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB, uuid.UUID) {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(NewRepository(conn), client)
	require.NoError(t, err)

	user := &models.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "x"}
	require.NoError(t, conn.Create(user).Error)
	return svc, conn, user.ID
}

func homeInput(name string) AddressInput {
	return AddressInput{
		Name:         name,
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560001",
	}
}

func defaults(t *testing.T, conn *gorm.DB, userID uuid.UUID) []models.Address {
	t.Helper()
	var rows []models.Address
	require.NoError(t, conn.Where("user_id = ? AND is_default = ?", userID, true).Find(&rows).Error)
	return rows
}

func userDefault(t *testing.T, conn *gorm.DB, userID uuid.UUID) *uuid.UUID {
	t.Helper()
	var user models.User
	require.NoError(t, conn.First(&user, "id = ?", userID).Error)
	return user.DefaultAddressID
}

func TestAddFirstAddressBecomesDefault(t *testing.T) {
	svc, conn, userID := newTestService(t)

	first, err := svc.Add(context.Background(), userID, homeInput("Home"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := svc.Add(context.Background(), userID, homeInput("Office"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	rows := defaults(t, conn, userID)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)
	require.NotNil(t, userDefault(t, conn, userID))
	assert.Equal(t, first.ID, *userDefault(t, conn, userID))
}

func TestAddWithDefaultUnsetsOthers(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, userID, homeInput("Home"))
	require.NoError(t, err)

	in := homeInput("Office")
	in.IsDefault = true
	office, err := svc.Add(ctx, userID, in)
	require.NoError(t, err)

	rows := defaults(t, conn, userID)
	require.Len(t, rows, 1)
	assert.Equal(t, office.ID, rows[0].ID)

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, office.ID, list[0].ID)
}

func TestSetDefaultKeepsExclusivity(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()

	home, err := svc.Add(ctx, userID, homeInput("Home"))
	require.NoError(t, err)
	office, err := svc.Add(ctx, userID, homeInput("Office"))
	require.NoError(t, err)

	require.NoError(t, svc.SetDefault(ctx, userID, office.ID))
	rows := defaults(t, conn, userID)
	require.Len(t, rows, 1)
	assert.Equal(t, office.ID, rows[0].ID)
	assert.Equal(t, office.ID, *userDefault(t, conn, userID))

	require.NoError(t, svc.SetDefault(ctx, userID, home.ID))
	rows = defaults(t, conn, userID)
	require.Len(t, rows, 1)
	assert.Equal(t, home.ID, rows[0].ID)
}

func TestSetDefaultRejectsForeignAddress(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	home, err := svc.Add(ctx, userID, homeInput("Home"))
	require.NoError(t, err)

	err = svc.SetDefault(ctx, uuid.New(), home.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteDefaultPromotesNewest(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()

	home, err := svc.Add(ctx, userID, homeInput("Home"))
	require.NoError(t, err)
	_, err = svc.Add(ctx, userID, homeInput("Office"))
	require.NoError(t, err)
	latest, err := svc.Add(ctx, userID, homeInput("Parents"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, home.ID))

	rows := defaults(t, conn, userID)
	require.Len(t, rows, 1)
	assert.Equal(t, latest.ID, rows[0].ID)
	assert.Equal(t, latest.ID, *userDefault(t, conn, userID))
}

func TestDeleteLastAddressClearsUserDefault(t *testing.T) {
	svc, conn, userID := newTestService(t)
	ctx := context.Background()

	home, err := svc.Add(ctx, userID, homeInput("Home"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, userID, home.ID))

	assert.Nil(t, userDefault(t, conn, userID))
	err = svc.Delete(ctx, userID, home.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateChangesFieldsOnly(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	home, err := svc.Add(ctx, userID, homeInput("Home"))
	require.NoError(t, err)

	in := homeInput("Home")
	in.City = "Mysuru"
	in.IsDefault = false
	updated, err := svc.Update(ctx, userID, home.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", updated.City)
	assert.True(t, updated.IsDefault)

	_, err = svc.Update(ctx, uuid.New(), home.ID, in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAddValidation(t *testing.T) {
	svc, _, userID := newTestService(t)

	in := homeInput("Home")
	in.Pincode = " "
	in.City = ""
	_, err := svc.Add(context.Background(), userID, in)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]any{"fields": []string{"city", "pincode"}}, typed.Details())
}
