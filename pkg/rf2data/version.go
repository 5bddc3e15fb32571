package rf2data

import (
	"fmt"
	"strconv"
	"strings"
)

// MinimumVersion is the oldest plugin version this package understands.
var MinimumVersion = [4]int{3, 6, 0, 0}

const versionHelp = "\nMake sure rFactor 2 is running and the shared memory plugin is enabled."

// VersionStatus is the outcome of a plugin version check.
type VersionStatus struct {
	// Verified is true when the plugin is present, recent enough and 64-bit.
	Verified bool
	Version  string
	Message  string
}

// CheckVersion validates the plugin version string published in the extended
// record. Each of the four parts is weighted by 100 when comparing.
func CheckVersion(ext Extended) VersionStatus {
	st := VersionStatus{Version: ext.Version}

	if ext.Version == "" {
		st.Message = "rFactor 2 Shared Memory not present." + versionHelp
		return st
	}

	parts := strings.Split(ext.Version, ".")
	if len(parts) != 4 {
		st.Message = fmt.Sprintf("Corrupt or leaked rFactor 2 Shared Memory. Version string: %s%s", ext.Version, versionHelp)
		return st
	}

	var have, want int
	factor := 1
	for i := 3; i >= 0; i-- {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			st.Message = fmt.Sprintf("Corrupt or leaked rFactor 2 Shared Memory version. Version string: %s%s", ext.Version, versionHelp)
			return st
		}
		have += n * factor
		want += MinimumVersion[i] * factor
		factor *= 100
	}

	if have < want {
		st.Message = fmt.Sprintf("Unsupported rFactor 2 Shared Memory version: %s. Minimum supported version is: %d.%d.%d.%d%s",
			ext.Version, MinimumVersion[0], MinimumVersion[1], MinimumVersion[2], MinimumVersion[3], versionHelp)
		return st
	}

	var b strings.Builder
	fmt.Fprintf(&b, "rFactor 2 Shared Memory version: %s 64bit.", ext.Version)
	if ext.DirectMemoryAccessEnabled {
		if ext.SCRPluginEnabled {
			fmt.Fprintf(&b, " Stock Car Rules plugin enabled. (DFT:%d)", ext.SCRPluginDoubleFileType)
		} else {
			b.WriteString(" DMA enabled.")
		}
	}
	if !ext.Is64Bit {
		b.WriteString("\nOnly 64bit version of rFactor 2 is supported.")
	} else {
		st.Verified = true
	}
	st.Message = b.String()
	return st
}
