package manifest

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "manifest":
		return manifestTemplate, nil
	case "catalog":
		return catalogTemplate, nil
	default:
		return "", fmt.Errorf("unknown template kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o644)
}

const manifestTemplate = `description = "avr-hal development environment"
platform = "x86_64-linux"

[inputs.nixpkgs]
url = "https://channels.example.org/nixpkgs"
ref = "nixos-24.05"

[inputs.avr-overlay]
url = "https://example.org/avr-overlay"
follows = "nixpkgs"

[profile.default]
capabilities = ["avr-gcc", "ravedude", "python3-pyserial", "picocom"]

[profile.default.env]
RAVEDUDE_PORT = "/dev/ttyACM0"
AVR_HAL_BUILD_TARGETS = "arduino-micro"

[profile.default.toolchain]
file = "rust-toolchain.toml"
sha256 = "sha256-0000000000000000000000000000000000000000000000000000000000000000"

[profile.default.hook]
prefix_dir = "devtools/bin"

[profile.all-targets]
capabilities = ["avr-gcc", "ravedude", "python3-pyserial", "picocom"]

[profile.all-targets.env]
RAVEDUDE_PORT = "/dev/ttyACM0"
AVR_HAL_BUILD_TARGETS = "all"

[profile.all-targets.hook]
prefix_dir = "devtools/bin"

[profile.vendor]
capabilities = ["avr-gcc", "ravedude", "python3-pyserial", "picocom", "avr-vendor-blob"]

[profile.vendor.env]
RAVEDUDE_PORT = "/dev/ttyACM0"

[profile.vendor.policy]
allow_unfree = ["avr-vendor-blob"]
`

const catalogTemplate = `[capability.avr-gcc]
name = "AVR GCC"
description = "AVR cross-compiler toolchain"

[capability.avr-gcc.builds.x86_64-linux]
digest = "sha256-0000000000000000000000000000000000000000000000000000000000000000"
bin_dir = "bin"

[capability.ravedude]
name = "ravedude"
description = "AVR board flashing tool"

[capability.ravedude.builds.x86_64-linux]
digest = "sha256-0000000000000000000000000000000000000000000000000000000000000000"
bin_dir = "bin"

[capability.python3-pyserial]
name = "Python 3 + pyserial"
description = "Python interpreter with the pyserial package"

[capability.python3-pyserial.builds.x86_64-linux]
digest = "sha256-0000000000000000000000000000000000000000000000000000000000000000"
bin_dir = "bin"

[capability.picocom]
name = "picocom"
description = "terminal serial client"

[capability.picocom.builds.x86_64-linux]
digest = "sha256-0000000000000000000000000000000000000000000000000000000000000000"
bin_dir = "bin"
`
