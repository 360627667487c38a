package scanner

import "github.com/kestrelsec/scanflow/pkg/api"

// vulnCatalog maps a detected service onto the findings reported for it
var vulnCatalog = map[string][]api.Vulnerability{
	"ssh": {
		{
			ID:       "SSH-001",
			Severity: api.SeverityMedium,
			Title:    "OpenSSH scp client command injection",
			Description: "The scp client in OpenSSH through 8.3p1 allows " +
				"command injection in the scp.c toremote function.",
			Recommendation: "Upgrade OpenSSH to 8.4 or later and prefer " +
				"sftp over scp.",
			References: []string{
				"https://nvd.nist.gov/vuln/detail/CVE-2020-15778",
			},
			CVE:  "CVE-2020-15778",
			CVSS: 6.8,
		},
	},
	"http": {
		{
			ID:       "HTTP-001",
			Severity: api.SeverityHigh,
			Title:    "nginx resolver off-by-one heap write",
			Description: "nginx before 1.20.1 has an off-by-one error in " +
				"the DNS resolver that may allow heap corruption.",
			Recommendation: "Upgrade nginx to 1.20.1 or later, or remove " +
				"resolver directives from the configuration.",
			References: []string{
				"https://nvd.nist.gov/vuln/detail/CVE-2021-23017",
			},
			CVE:  "CVE-2021-23017",
			CVSS: 7.7,
		},
	},
	"https": {
		{
			ID:       "TLS-001",
			Severity: api.SeverityMedium,
			Title:    "Weak TLS cipher suites enabled",
			Description: "The server accepts CBC-mode cipher suites with " +
				"TLS 1.2, exposing clients to padding oracle attacks.",
			Recommendation: "Restrict the cipher list to AEAD suites and " +
				"enable TLS 1.3.",
		},
	},
	"ftp": {
		{
			ID:       "FTP-001",
			Severity: api.SeverityHigh,
			Title:    "Cleartext FTP authentication",
			Description: "The FTP service accepts credentials over an " +
				"unencrypted channel.",
			Recommendation: "Disable plain FTP and require FTPS or SFTP.",
		},
	},
	"mysql": {
		{
			ID:       "MYSQL-001",
			Severity: api.SeverityHigh,
			Title:    "End-of-support MySQL 5.7 exposure",
			Description: "MySQL 5.7 no longer receives security patches; " +
				"multiple server vulnerabilities remain unfixed.",
			Recommendation: "Upgrade to MySQL 8.0 and restrict port 3306 " +
				"to trusted networks.",
		},
	},
	"mongodb": {
		{
			ID:       "MONGO-001",
			Severity: api.SeverityCritical,
			Title:    "Unauthenticated MongoDB access",
			Description: "The MongoDB service accepts connections without " +
				"authentication, exposing all databases.",
			Recommendation: "Enable authorization and bind the service to " +
				"internal interfaces only.",
			CVSS: 9.8,
		},
	},
}

// infoCatalog holds low-severity findings only reported by aggressive scans
var infoCatalog = map[string][]api.Vulnerability{
	"http": {
		{
			ID:       "HTTP-INFO-001",
			Severity: api.SeverityLow,
			Title:    "Server version disclosure",
			Description: "The Server response header reveals the exact " +
				"nginx version.",
			Recommendation: "Set server_tokens off.",
		},
	},
	"ssh": {
		{
			ID:       "SSH-INFO-001",
			Severity: api.SeverityLow,
			Title:    "SSH banner discloses software version",
			Description: "The SSH protocol banner reveals the OpenSSH " +
				"version in use.",
			Recommendation: "Accept as residual risk or patch the banner.",
		},
	},
}
