package types

import "fmt"

// ScpConfig configures the local listening service
type ScpConfig struct {
	AETitle    string `json:"aeTitle" yaml:"ae_title" validate:"required,max=16"`
	Port       int    `json:"port" yaml:"port" validate:"gte=1,lte=65535"`
	MaxPDUSize int    `json:"maxPduSize" yaml:"max_pdu_size" validate:"gte=0"`
}

// DefaultScpConfig is the listener configuration used until the user changes it
var DefaultScpConfig = ScpConfig{
	AETitle:    "DICOM_TOOLKIT",
	Port:       11112,
	MaxPDUSize: 16384,
}

// PeerEndpoint is a remote point-to-point association peer
type PeerEndpoint struct {
	Name           string `json:"name" yaml:"name"`
	AETitle        string `json:"aeTitle" yaml:"ae_title" validate:"required,max=16"`
	Host           string `json:"host" yaml:"host" validate:"required"`
	Port           int    `json:"port" yaml:"port" validate:"gte=1,lte=65535"`
	CallingAETitle string `json:"callingAeTitle,omitempty" yaml:"calling_ae_title,omitempty" validate:"max=16"`
}

// Key identifies the peer by value
func (p PeerEndpoint) Key() string {
	return fmt.Sprintf("%s@%s:%d", p.AETitle, p.Host, p.Port)
}

// AuthType selects how a web-service endpoint authenticates
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthCustom AuthType = "custom"
)

// WebServiceEndpoint is an HTTP-based DICOM service. Credentials are held
// elsewhere; CredentialsRef only names them.
type WebServiceEndpoint struct {
	Name           string            `json:"name" yaml:"name"`
	BaseURL        string            `json:"baseUrl" yaml:"base_url" validate:"required,url"`
	Auth           AuthType          `json:"auth,omitempty" yaml:"auth,omitempty" validate:"omitempty,oneof=none basic bearer custom"`
	CredentialsRef string            `json:"credentialsRef,omitempty" yaml:"credentials_ref,omitempty"`
	Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Key identifies the endpoint by value
func (w WebServiceEndpoint) Key() string {
	return w.BaseURL
}

// ConnectionState is the listener status plus every known remote endpoint
type ConnectionState struct {
	ScpRunning   bool
	Scp          ScpConfig
	Peers        []PeerEndpoint
	WebEndpoints []WebServiceEndpoint
	// ActiveWebEndpoint is the BaseURL of the endpoint used for subsequent
	// operations, empty when none is active.
	ActiveWebEndpoint string
}
