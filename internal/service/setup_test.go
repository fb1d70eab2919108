package service_test

import (
	"context"

	"content-pipeline/internal/account"
)

const (
	testAccount = "acct-1"
	testUser    = "user-1"
)

func editorCtx() context.Context {
	return account.WithAccount(context.Background(), account.Identity{AccountID: testAccount, UserID: testUser, Role: account.RoleEditor})
}

func adminCtx() context.Context {
	return account.WithAccount(context.Background(), account.Identity{AccountID: testAccount, UserID: testUser, Role: account.RoleAdmin})
}

func viewerCtx() context.Context {
	return account.WithAccount(context.Background(), account.Identity{AccountID: testAccount, UserID: testUser, Role: account.RoleViewer})
}

func systemCtx() context.Context {
	return account.WithAccount(context.Background(), account.Identity{AccountID: testAccount, UserID: testUser, Role: account.RoleSystem})
}

func strPtr(s string) *string { return &s }
