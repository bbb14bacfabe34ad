package auth

import (
	"encoding/binary"
	"encoding/json"
	"strconv"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/linkcapture/console/internal/models"
	"gorm.io/datatypes"
)

// adminDisplayName is shown by authenticators during ceremonies.
const adminDisplayName = "Administrator"

// adminUser adapts the administrator and its credentials to webauthn.User.
type adminUser struct {
	id          uint64
	credentials []webauthn.Credential
}

func newAdminUser(adminID uint64, rows []models.WebAuthnCredential) adminUser {
	user := adminUser{id: adminID, credentials: make([]webauthn.Credential, 0, len(rows))}
	for _, row := range rows {
		user.credentials = append(user.credentials, toWebAuthnCredential(row))
	}
	return user
}

// WebAuthnID returns the admin ID as an 8-byte big-endian user handle.
func (u adminUser) WebAuthnID() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, u.id)
	return buf
}

// WebAuthnName returns "admin-<id>".
func (u adminUser) WebAuthnName() string {
	return "admin-" + strconv.FormatUint(u.id, 10)
}

// WebAuthnDisplayName returns the fixed display name.
func (u adminUser) WebAuthnDisplayName() string {
	return adminDisplayName
}

// WebAuthnCredentials returns registered credentials.
func (u adminUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

// descriptors lists the user's credentials for exclude and allow lists.
// Credentials without stored transports are hinted as platform internal.
func (u adminUser) descriptors() []protocol.CredentialDescriptor {
	out := webauthn.Credentials(u.credentials).CredentialDescriptors()
	for i := range out {
		if len(out[i].Transport) == 0 {
			out[i].Transport = []protocol.AuthenticatorTransport{protocol.Internal}
		}
	}
	return out
}

func toWebAuthnCredential(row models.WebAuthnCredential) webauthn.Credential {
	return webauthn.Credential{
		ID:              row.CredentialID,
		PublicKey:       row.PublicKey,
		AttestationType: row.AttestationType,
		Transport:       decodeTransports(row.Transports),
		Flags: webauthn.CredentialFlags{
			UserPresent:    true,
			UserVerified:   true,
			BackupEligible: row.BackupEligible,
			BackupState:    row.BackupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    row.AAGUID,
			SignCount: row.SignCount,
		},
	}
}

func encodeTransports(transports []protocol.AuthenticatorTransport) datatypes.JSON {
	if len(transports) == 0 {
		return datatypes.JSON("[]")
	}
	raw, err := json.Marshal(transports)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

func decodeTransports(raw datatypes.JSON) []protocol.AuthenticatorTransport {
	if len(raw) == 0 {
		return nil
	}
	var transports []protocol.AuthenticatorTransport
	if err := json.Unmarshal(raw, &transports); err != nil {
		return nil
	}
	return transports
}
