// Package mocks provides gomock implementations of the repository ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	users := mocks.NewMockUserRepository(ctrl)
//	users.EXPECT().GetByID(gomock.Any(), int64(42)).Return(user, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_repository_mock.go github.com/codequest/codequest-web/internal/core UserRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=admin_repository_mock.go github.com/codequest/codequest-web/internal/core AdminRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=announcement_repository_mock.go github.com/codequest/codequest-web/internal/core AnnouncementRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=lesson_repository_mock.go github.com/codequest/codequest-web/internal/core LessonRepository

// PrincipalRepository sits in ports next to the other auth interfaces.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=principal_repository_mock.go github.com/codequest/codequest-web/internal/ports PrincipalRepository
