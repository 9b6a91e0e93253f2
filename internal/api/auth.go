package api

import (
	"context"

	"github.com/machinebox/graphql"

	"github.com/fjod/storefront/internal/domain"
)

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	req := graphql.NewRequest(loginMutation)
	req.Var("email", email)
	req.Var("password", password)

	var resp loginResponse
	if err := c.run(ctx, "login", req, &resp); err != nil {
		return domain.Session{}, err
	}

	return domain.Session{
		AccountID:    resp.Login.Account.ID,
		AccessToken:  resp.Login.AccessToken,
		RefreshToken: resp.Login.RefreshToken,
		Role:         resp.Login.Account.Role,
	}, nil
}

// RefreshToken exchanges a refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	req := graphql.NewRequest(refreshTokenMutation)
	req.Var("refreshToken", refreshToken)

	var resp refreshTokenResponse
	if err := c.run(ctx, "refreshToken", req, &resp); err != nil {
		return "", err
	}
	return resp.RefreshToken.AccessToken, nil
}

func (c *Client) CreateAccount(ctx context.Context, in domain.NewAccount) (domain.Account, error) {
	req := graphql.NewRequest(createAccountMutation)
	req.Var("account", accountInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
	})

	var resp createAccountResponse
	if err := c.run(ctx, "createAccount", req, &resp); err != nil {
		return domain.Account{}, err
	}
	return resp.CreateAccount.toDomain(), nil
}

// ForgotPassword verifies the identity triple and returns the account id used to reset the password.
func (c *Client) ForgotPassword(ctx context.Context, email, firstName, lastName string) (string, error) {
	req := graphql.NewRequest(forgotPasswordMutation)
	req.Var("input", forgotPasswordInput{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	})

	var resp forgotPasswordResponse
	if err := c.run(ctx, "forgotPassword", req, &resp); err != nil {
		return "", err
	}
	return resp.ForgotPassword.ID, nil
}

func (c *Client) ResetPassword(ctx context.Context, id, email, password string) (domain.Account, error) {
	req := graphql.NewRequest(resetPasswordMutation)
	req.Var("input", resetPasswordInput{
		ID:       id,
		Email:    email,
		Password: password,
	})

	var resp resetPasswordResponse
	if err := c.run(ctx, "resetPassword", req, &resp); err != nil {
		return domain.Account{}, err
	}
	return resp.ResetPassword.toDomain(), nil
}
