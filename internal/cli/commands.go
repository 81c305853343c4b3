package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/dmitrijs2005/usersync/internal/models"
	"github.com/dmitrijs2005/usersync/internal/replication"
)

var errSnapshotsDisabled = errors.New("snapshots are not configured")

func (a *App) readSecret() (string, error) {
	pw, err := GetPassword(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	if len(pw) == 0 {
		return "", errEmptyInput
	}
	return string(pw), nil
}

func (a *App) Register(ctx context.Context) error {
	username, err := GetRequiredText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}
	account, err := GetRequiredText(a.reader, "Enter account", a.out)
	if err != nil {
		return err
	}
	if err := models.CheckTupleFields(username, account); err != nil {
		return err
	}
	secret, err := a.readSecret()
	if err != nil {
		return err
	}

	ok, err := a.dir.CreateUser(ctx, username, account, secret)
	if err != nil {
		return err
	}
	if !ok {
		a.printf("Account %s already exists", account)
		return nil
	}
	a.printf("Registered %s", username)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	account, err := GetRequiredText(a.reader, "Enter account", a.out)
	if err != nil {
		return err
	}
	secret, err := a.readSecret()
	if err != nil {
		return err
	}

	username, err := a.dir.Authenticate(ctx, account, secret)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.printf("Login unsuccessful")
			return nil
		}
		return err
	}

	a.mu.Lock()
	a.user = username
	a.mu.Unlock()
	a.logger.Info(ctx, "dashboard login", "username", username)
	a.printf("Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.mu.Lock()
	a.user = ""
	a.mu.Unlock()
	a.printf("Logged out")
	return nil
}

func (a *App) List(ctx context.Context) error {
	tuples, err := a.dir.ListAllRecords(ctx)
	if err != nil {
		return err
	}
	if len(tuples) == 0 {
		a.printf("No users")
		return nil
	}
	for _, t := range tuples {
		u, ok := models.ParseTuple(t)
		if !ok {
			continue
		}
		a.printf("%-20s %s", u.Username, u.Account)
	}
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	username, err := GetRequiredText(a.reader, "Enter user name to delete", a.out)
	if err != nil {
		return err
	}
	return a.dir.DeleteUser(ctx, username)
}

func (a *App) Passwd(ctx context.Context) error {
	username, err := GetRequiredText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}
	secret, err := a.readSecret()
	if err != nil {
		return err
	}
	return a.dir.ChangeSecret(ctx, username, secret)
}

func (a *App) Clear(ctx context.Context) error {
	answer, err := GetSimpleText(a.reader, "Delete all local users? (yes/no)", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		a.printf("Cancelled")
		return nil
	}
	if err := a.dir.ClearAllRecords(ctx); err != nil {
		if errors.Is(err, replication.ErrClearDisabled) {
			a.printf("Clear is disabled on this side, nothing was removed")
			return nil
		}
		return err
	}
	a.printf("All local users removed")
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	stats, err := a.dir.Pull(ctx)
	if err != nil {
		if replication.IsPeerError(err) {
			a.printf("not synced: %s", err.Error())
			return nil
		}
		return err
	}
	a.printf("Pulled %d records, added %d", stats.Received, stats.Added)
	return nil
}

func (a *App) Snapshot(ctx context.Context) error {
	if a.exporter == nil || a.records == nil {
		return errSnapshotsDisabled
	}
	key, err := a.exporter.Export(ctx, a.records)
	if err != nil {
		return err
	}
	a.printf("Snapshot uploaded: %s", key)
	return nil
}
