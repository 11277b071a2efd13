package service_test

import (
	"context"

	"github.com/mtlprog/bitacora/internal/domain"
)

func (s *ServiceTestSuite) countDefaults(ctx context.Context) int {
	var n int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM task_request_categories WHERE is_default").Scan(&n)
	s.Require().NoError(err)
	return n
}

// TestSetAsDefault moves the default flag to another category.
func (s *ServiceTestSuite) TestSetAsDefault() {
	ctx := context.Background()

	def, err := s.categories.GetDefault(ctx)
	s.Require().NoError(err)
	s.Equal("General", def.Name)

	c, err := s.categories.SetAsDefault(ctx, maintenanceCategoryID)
	s.Require().NoError(err)
	s.True(c.IsDefault)

	def, err = s.categories.GetDefault(ctx)
	s.Require().NoError(err)
	s.Equal(maintenanceCategoryID, def.ID)
	s.Equal(1, s.countDefaults(ctx))

	// Setting the current default again is a no-op.
	_, err = s.categories.SetAsDefault(ctx, maintenanceCategoryID)
	s.Require().NoError(err)
	s.Equal(1, s.countDefaults(ctx))

	t := s.createDraft(ctx)
	s.Equal(maintenanceCategoryID, t.CategoryID)
}

// TestSetAsDefault_NotFound keeps the current default.
func (s *ServiceTestSuite) TestSetAsDefault_NotFound() {
	ctx := context.Background()

	_, err := s.categories.SetAsDefault(ctx, 999)
	s.ErrorIs(err, domain.ErrCategoryNotFound)

	def, err := s.categories.GetDefault(ctx)
	s.Require().NoError(err)
	s.Equal(generalCategoryID, def.ID)
}

// TestSetAsDefault_Concurrent never leaves two defaults.
func (s *ServiceTestSuite) TestSetAsDefault_Concurrent() {
	ctx := context.Background()

	done := make(chan error, 2)
	for _, id := range []int64{maintenanceCategoryID, itSupportCategoryID} {
		go func() {
			_, err := s.categories.SetAsDefault(ctx, id)
			done <- err
		}()
	}
	s.NoError(<-done)
	s.NoError(<-done)

	s.Equal(1, s.countDefaults(ctx))
}

// TestCreateCategory adds categories and rejects duplicates.
func (s *ServiceTestSuite) TestCreateCategory() {
	ctx := context.Background()

	c, err := s.categories.Create(ctx, "Cleaning", "Office cleaning", false)
	s.Require().NoError(err)
	s.True(c.IsActive)
	s.False(c.IsDefault)

	_, err = s.categories.Create(ctx, "Cleaning", "", false)
	s.ErrorIs(err, domain.ErrCategoryExists)

	_, err = s.categories.Create(ctx, "  ", "", false)
	s.ErrorIs(err, domain.ErrInvalidCategory)

	security, err := s.categories.Create(ctx, "Security", "", true)
	s.Require().NoError(err)
	s.True(security.IsDefault)
	s.Equal(1, s.countDefaults(ctx))

	all, err := s.categories.List(ctx, false)
	s.Require().NoError(err)
	s.Len(all, 5)
}
