package discovery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
	"github.com/gazelink-protocol/gazelink-go/pkg/version"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeRuntimeTXT creates TXT records for a runtime announcement.
func EncodeRuntimeTXT(info *RuntimeInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	txt[TXTKeyVersion] = info.RuntimeVersion.String()
	txt[TXTKeyModel] = info.Model
	txt[TXTKeySerial] = info.SerialNumber
	txt[TXTKeyCapabilities] = strconv.FormatUint(uint64(info.Capabilities), 16)

	if info.Manufacturer != "" {
		txt[TXTKeyManufacturer] = info.Manufacturer
	}
	if info.Calibrated {
		txt[TXTKeyCalibrated] = "1"
	}

	return txt
}

// DecodeRuntimeTXT parses TXT records from a runtime announcement.
func DecodeRuntimeTXT(txt TXTRecordMap) (*RuntimeInfo, error) {
	info := &RuntimeInfo{}

	vStr, ok := txt[TXTKeyVersion]
	if !ok {
		return nil, status.Newf(status.CodeMissingArgument, "txt record %s", TXTKeyVersion)
	}
	v, err := version.Parse(vStr)
	if err != nil {
		return nil, status.Newf(status.CodeInvalidArgument, "txt record %s: %v", TXTKeyVersion, err)
	}
	info.RuntimeVersion = v

	info.Model, ok = txt[TXTKeyModel]
	if !ok || info.Model == "" {
		return nil, status.Newf(status.CodeMissingArgument, "txt record %s", TXTKeyModel)
	}
	info.SerialNumber, ok = txt[TXTKeySerial]
	if !ok || info.SerialNumber == "" {
		return nil, status.Newf(status.CodeMissingArgument, "txt record %s", TXTKeySerial)
	}

	if caStr, ok := txt[TXTKeyCapabilities]; ok {
		bits, err := strconv.ParseUint(caStr, 16, 32)
		if err != nil {
			return nil, status.Newf(status.CodeInvalidArgument, "txt record %s: %q", TXTKeyCapabilities, caStr)
		}
		info.Capabilities = capability.Capabilities(bits)
	}

	info.Manufacturer = txt[TXTKeyManufacturer]
	info.Calibrated = txt[TXTKeyCalibrated] == "1"

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value"
// strings, the format mDNS libraries use.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a
// TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// InstanceName derives the mDNS instance name for a runtime.
func InstanceName(info *RuntimeInfo) string {
	name := info.InstanceName
	if name == "" {
		name = "GazeLink-" + info.SerialNumber
	}
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}
