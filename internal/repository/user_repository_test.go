package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/utils"
)

// UserRepositoryTestSuite defines the test suite for GormUserRepository
type UserRepositoryTestSuite struct {
	suite.Suite
	ctx   context.Context
	users UserRepository
}

// SetupTest runs before each test
func (s *UserRepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = NewUserRepository(newTestDB(s.T()))
}

func (s *UserRepositoryTestSuite) TestCreate_NormalizesFields() {
	user := &models.User{Username: " Alice ", Email: "Alice@Example.COM", PasswordHash: "h"}
	s.Require().NoError(s.users.Create(s.ctx, user))

	s.True(utils.ValidID(user.ID))
	s.Equal("Alice", user.Username)
	s.Equal("alice", user.UsernameCI)
	s.Equal("alice@example.com", user.Email)
	s.Equal(models.RoleUser, user.Role)
	s.Equal(models.ThemePandora, user.Theme)
}

func (s *UserRepositoryTestSuite) TestCreate_DuplicateUsernameIgnoresCase() {
	createUser(s.T(), s.users, "alice")

	err := s.users.Create(s.ctx, &models.User{Username: "ALICE", Email: "other@example.com", PasswordHash: "h"})
	s.ErrorIs(err, apierrors.ErrConflict)
}

func (s *UserRepositoryTestSuite) TestCreate_DuplicateEmail() {
	createUser(s.T(), s.users, "alice")

	err := s.users.Create(s.ctx, &models.User{Username: "bob", Email: "ALICE@example.com", PasswordHash: "h"})
	s.ErrorIs(err, apierrors.ErrConflict)
}

func (s *UserRepositoryTestSuite) TestFinders() {
	alice := createUser(s.T(), s.users, "Alice")

	byID, err := s.users.FindByID(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal("Alice", byID.Username)

	byName, err := s.users.FindByUsername(s.ctx, "aLiCe")
	s.Require().NoError(err)
	s.Equal(alice.ID, byName.ID)

	byEmail, err := s.users.FindByEmail(s.ctx, "ALICE@example.com")
	s.Require().NoError(err)
	s.Equal(alice.ID, byEmail.ID)

	_, err = s.users.FindByUsername(s.ctx, "nobody")
	s.ErrorIs(err, apierrors.ErrNotFound)

	_, err = s.users.FindByID(s.ctx, "42")
	s.ErrorIs(err, apierrors.ErrNotFound)
}

func (s *UserRepositoryTestSuite) TestList_OrderedAndPaginated() {
	for _, name := range []string{"carol", "Alice", "bob"} {
		createUser(s.T(), s.users, name)
	}

	users, total, err := s.users.List(s.ctx, 0, 2)
	s.Require().NoError(err)
	s.EqualValues(3, total)
	s.Require().Len(users, 2)
	s.Equal("Alice", users[0].Username)
	s.Equal("bob", users[1].Username)

	users, _, err = s.users.List(s.ctx, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal("carol", users[0].Username)
}

func (s *UserRepositoryTestSuite) TestUpdate() {
	alice := createUser(s.T(), s.users, "alice")
	admin := models.RoleAdmin

	res, err := s.users.Update(s.ctx, alice.ID, UserUpdate{Username: ptr("Alicia"), Role: &admin})
	s.Require().NoError(err)
	s.Equal(UpdateResult{Matched: true, Modified: true}, res)

	got, err := s.users.FindByUsername(s.ctx, "alicia")
	s.Require().NoError(err)
	s.Equal("Alicia", got.Username)
	s.True(got.IsAdmin())

	res, err = s.users.Update(s.ctx, alice.ID, UserUpdate{Username: ptr("Alicia")})
	s.Require().NoError(err)
	s.Equal(UpdateResult{Matched: true, Modified: false}, res)

	_, err = s.users.Update(s.ctx, utils.NewID(), UserUpdate{Username: ptr("x")})
	s.ErrorIs(err, apierrors.ErrNotFound)
}

func (s *UserRepositoryTestSuite) TestUpdate_DuplicateUsername() {
	createUser(s.T(), s.users, "alice")
	bob := createUser(s.T(), s.users, "bob")

	_, err := s.users.Update(s.ctx, bob.ID, UserUpdate{Username: ptr("Alice")})
	s.ErrorIs(err, apierrors.ErrConflict)
}

func (s *UserRepositoryTestSuite) TestDeleteAndCounts() {
	alice := createUser(s.T(), s.users, "alice")
	admin := &models.User{Username: "root", Email: "root@example.com", PasswordHash: "h", Role: models.RoleAdmin}
	s.Require().NoError(s.users.Create(s.ctx, admin))

	count, err := s.users.Count(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(2, count)

	admins, err := s.users.CountAdmins(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, admins)

	s.Require().NoError(s.users.Delete(s.ctx, alice.ID))
	s.ErrorIs(s.users.Delete(s.ctx, alice.ID), apierrors.ErrNotFound)

	count, err = s.users.Count(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, count)
}

func TestUserRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}
