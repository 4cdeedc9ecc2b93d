package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophevents/internal/client/models"
	"github.com/dmitrijs2005/gophevents/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getPassword     = GetPassword
	getMultiline    = GetMultiline
	getConfirmation = GetConfirmation
)

// askEmail prompts for an email, offering the logged-in one as default.
func (a *App) askEmail() (string, error) {
	prompt := "Enter email"
	if a.session != nil {
		prompt = fmt.Sprintf("Enter email (empty for %s)", a.session.Email)
	}
	email, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if email == "" && a.session != nil {
		email = a.session.Email
	}
	return email, nil
}

// Register creates an account. The server mails a verification code that
// the user then enters with 'verify'.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Register(ctx, email, password, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s. A verification code was sent to %s, enter it with 'verify'.\n", u.Name, u.Email)
	return nil
}

// Login authenticates and remembers the session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.authService.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.session = s
	fmt.Fprintf(a.out, "Logged in as %s\n", s.Name)
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	email, err := a.askEmail()
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter verification code", a.out)
	if err != nil {
		return err
	}

	if _, err := a.authService.VerifyAccount(ctx, email, code); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account verified successfully")
	return nil
}

func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := a.askEmail()
	if err != nil {
		return err
	}

	msg, err := a.authService.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	fmt.Fprintln(a.out, "Use 'reset' once you have the code.")
	return nil
}

// ResetPassword checks the reset code before asking for the new password.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := a.askEmail()
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter reset code", a.out)
	if err != nil {
		return err
	}

	if err := a.authService.VerifyResetCode(ctx, email, code); err != nil {
		return err
	}

	password, err := getPassword(a.out, "New password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.ResetPassword(ctx, email, code, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password has been reset, log in with the new one.")
	return nil
}

// Profile edits name, email and password. Empty answers keep the value.
func (a *App) Profile(ctx context.Context) error {
	name, err := getSimpleText(a.reader, fmt.Sprintf("New name (empty keeps %q)", a.session.Name), a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, fmt.Sprintf("New email (empty keeps %q)", a.session.Email), a.out)
	if err != nil {
		return err
	}
	newPassword, err := getPassword(a.out, "New password (empty keeps current): ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	upd := models.ProfileUpdate{Name: name, Email: email}

	if len(newPassword) > 0 {
		current, err := getPassword(a.out, "Current password: ")
		if err != nil {
			return err
		}
		defer common.WipeByteArray(current)
		upd.NewPassword = string(newPassword)
		upd.CurrentPassword = string(current)
	}

	if upd == (models.ProfileUpdate{}) {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	s, err := a.authService.EditProfile(ctx, upd)
	if err != nil {
		return err
	}
	a.session = s
	fmt.Fprintln(a.out, "Profile updated successfully")
	return nil
}

// Logout drops the local session even if the server call fails.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx)
	a.session = nil
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out successfully")
	return nil
}
