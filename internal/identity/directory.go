package identity

import (
	"sort"
	"strings"

	"github.com/cbc-energia/fieldops-backend/pkg/config"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/security"
)

// Directory is the user database. Accounts are provisioned centrally and
// shipped with the device image, so the set is fixed at construction.
type Directory struct {
	accounts map[string]Account
}

type seedUser struct {
	id        string
	name      string
	role      enums.Role
	avatarURL string
	points    int
	password  string
}

// Field-team accounts provisioned for the pilot deployment.
var seedUsers = map[string]seedUser{
	"admin@cbc.com": {
		id:       "admin-1",
		name:     "Gestor Administrativo",
		role:     enums.RoleAdmin,
		password: "123",
	},
	"vendas@cbc.com": {
		id:       "user-2",
		name:     "Carlos Vendas (Externo)",
		role:     enums.RoleProspector,
		password: "123",
	},
	"lider@cbc.com": {
		id:       "user-3",
		name:     "Ana Líder (Fechamento)",
		role:     enums.RoleSalesLeader,
		password: "123",
	},
	"tecnico@cbc.com": {
		id:       "user-4",
		name:     "Roberto Técnico",
		role:     enums.RoleInstaller,
		password: "123",
	},
	"vistoria@cbc.com": {
		id:       "user-5",
		name:     "Marcos Vistoria",
		role:     enums.RoleInspector,
		password: "123",
	},
}

// NewSeededDirectory hashes the provisioned credentials and returns the
// directory used by dev and pilot builds.
func NewSeededDirectory(cfg config.PasswordConfig) (*Directory, error) {
	accounts := make(map[string]Account, len(seedUsers))
	for email, seed := range seedUsers {
		hash, err := security.HashPassword(seed.password, cfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash seed credential for "+email)
		}
		accounts[email] = Account{
			User: User{
				ID:        seed.id,
				Name:      seed.name,
				Email:     email,
				Role:      seed.role,
				AvatarURL: seed.avatarURL,
				Points:    seed.points,
			},
			PasswordHash: hash,
		}
	}
	return &Directory{accounts: accounts}, nil
}

// NewDirectory builds a directory from pre-hashed accounts, keyed by email.
func NewDirectory(accounts []Account) *Directory {
	byEmail := make(map[string]Account, len(accounts))
	for _, account := range accounts {
		byEmail[normalizeEmail(account.User.Email)] = account
	}
	return &Directory{accounts: byEmail}
}

// Lookup returns the account registered under the email, if any.
func (d *Directory) Lookup(email string) (Account, bool) {
	account, ok := d.accounts[normalizeEmail(email)]
	return account, ok
}

// DemoAccounts lists the directory for the dev login screen, sorted by email.
func (d *Directory) DemoAccounts() []DemoAccount {
	out := make([]DemoAccount, 0, len(d.accounts))
	for email, account := range d.accounts {
		out = append(out, DemoAccount{
			Email: email,
			Name:  account.User.Name,
			Role:  account.User.Role,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
