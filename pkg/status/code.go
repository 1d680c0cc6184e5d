package status

// Code identifies the outcome of an SDK operation.
type Code int

const (
	// CodeNone indicates success.
	CodeNone Code = 0

	// CodeUnknown indicates an unclassified failure.
	CodeUnknown Code = 1

	// Connection codes.

	// CodeNotConnected indicates no session with the runtime service exists,
	// or the handle was already closed.
	CodeNotConnected Code = 10
	// CodeRuntimeVersionTooOld indicates the runtime service is too old for
	// this client library.
	CodeRuntimeVersionTooOld Code = 11

	// API usage codes.

	// CodeNotRegistered indicates the capability required by the call was
	// not registered beforehand.
	CodeNotRegistered Code = 20
	// CodeInvalidArgument indicates an argument was invalid, out of range,
	// or violated call ordering.
	CodeInvalidArgument Code = 21
	// CodeMissingArgument indicates a required input was absent.
	CodeMissingArgument Code = 22
	// CodeNoOutputsRequested indicates a pure query was issued with no
	// outputs requested at all.
	CodeNoOutputsRequested Code = 23
	// CodeOverlappingOutputs indicates the requested outputs alias each other.
	CodeOverlappingOutputs Code = 24
	// CodeTimeout indicates a blocking call gave up waiting; the caller may
	// retry.
	CodeTimeout Code = 25

	// Data availability codes.

	// CodeNoUpdate indicates the capability is registered but the service
	// has not produced any data yet. Callers typically poll on this.
	CodeNoUpdate Code = 30
	// CodeUncalibrated indicates the queried value requires a calibration
	// that has not been performed.
	CodeUncalibrated Code = 31
	// CodeUnreliable indicates the returned data is too unreliable to use.
	CodeUnreliable Code = 32
	// CodeLowAccuracy indicates the returned data is valid but degraded.
	CodeLowAccuracy Code = 33
	// CodeUnreadable indicates the data could not be read back intact.
	CodeUnreadable Code = 34

	// Registration codes.

	// CodeAlreadyRegistered indicates an object with the same id is already
	// registered.
	CodeAlreadyRegistered Code = 40

	// Calibration codes.

	// CodeOtherRendererPrioritized indicates a calibration session is
	// running but another client currently holds rendering priority.
	CodeOtherRendererPrioritized Code = 50

	// License codes.

	// CodeFeatureAccessDenied indicates the active licenses do not cover
	// the requested feature.
	CodeFeatureAccessDenied Code = 60

	// Profile codes.

	// CodeProfileDoesntExist indicates the named profile does not exist.
	CodeProfileDoesntExist Code = 70
	// CodeProfileNotAvailable indicates the profile name is taken, or the
	// requested profile is already current.
	CodeProfileNotAvailable Code = 71
	// CodeProfileInvalidName indicates the profile name is not acceptable.
	CodeProfileInvalidName Code = 72

	// Config codes.

	// CodeConfigDoesntExist indicates the config key does not exist.
	CodeConfigDoesntExist Code = 80
	// CodeConfigTypeMismatch indicates the config key exists with a
	// different value type.
	CodeConfigTypeMismatch Code = 81

	// System codes.

	// CodeSystemPathNotFound indicates a filesystem path was not found.
	CodeSystemPathNotFound Code = 90
	// CodeSystemAccessDenied indicates a filesystem permission failure.
	CodeSystemAccessDenied Code = 91
	// CodeSystemUnknown indicates an unclassified system failure.
	CodeSystemUnknown Code = 92
)

// Category groups codes into the kinds callers branch on.
type Category uint8

const (
	// CategoryNone is the category of CodeNone.
	CategoryNone Category = iota
	// CategoryConnection covers connection-state failures.
	CategoryConnection
	// CategoryAPI covers argument-validity and call-ordering failures.
	CategoryAPI
	// CategoryData covers data-availability and data-quality conditions.
	CategoryData
	// CategoryRegistration covers object registration conflicts.
	CategoryRegistration
	// CategoryCalibration covers calibration arbitration conditions.
	CategoryCalibration
	// CategoryLicense covers licensing failures.
	CategoryLicense
	// CategoryProfile covers profile management failures.
	CategoryProfile
	// CategoryConfig covers config store failures.
	CategoryConfig
	// CategorySystem covers filesystem and other system failures.
	CategorySystem
	// CategoryUnknown covers everything else.
	CategoryUnknown
)

// Category returns the category of the code.
func (c Code) Category() Category {
	switch {
	case c == CodeNone:
		return CategoryNone
	case c >= CodeNotConnected && c < CodeNotRegistered:
		return CategoryConnection
	case c >= CodeNotRegistered && c < CodeNoUpdate:
		return CategoryAPI
	case c >= CodeNoUpdate && c < CodeAlreadyRegistered:
		return CategoryData
	case c == CodeAlreadyRegistered:
		return CategoryRegistration
	case c == CodeOtherRendererPrioritized:
		return CategoryCalibration
	case c == CodeFeatureAccessDenied:
		return CategoryLicense
	case c >= CodeProfileDoesntExist && c < CodeConfigDoesntExist:
		return CategoryProfile
	case c >= CodeConfigDoesntExist && c < CodeSystemPathNotFound:
		return CategoryConfig
	case c >= CodeSystemPathNotFound && c <= CodeSystemUnknown:
		return CategorySystem
	default:
		return CategoryUnknown
	}
}

// String returns the code name.
func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "Unknown"
}

var codeNames = map[Code]string{
	CodeNone:                     "None",
	CodeUnknown:                  "UnknownError",
	CodeNotConnected:             "Connect_NotConnected",
	CodeRuntimeVersionTooOld:     "Connect_RuntimeVersionTooOld",
	CodeNotRegistered:            "API_NotRegistered",
	CodeInvalidArgument:          "API_InvalidArgument",
	CodeMissingArgument:          "API_MissingArgument",
	CodeNoOutputsRequested:       "API_NoOutputsRequested",
	CodeOverlappingOutputs:       "API_OverlappingOutputs",
	CodeTimeout:                  "API_Timeout",
	CodeNoUpdate:                 "Data_NoUpdate",
	CodeUncalibrated:             "Data_Uncalibrated",
	CodeUnreliable:               "Data_Unreliable",
	CodeLowAccuracy:              "Data_LowAccuracy",
	CodeUnreadable:               "Data_Unreadable",
	CodeAlreadyRegistered:        "Object_AlreadyRegistered",
	CodeOtherRendererPrioritized: "Calibration_OtherRendererPrioritized",
	CodeFeatureAccessDenied:      "License_FeatureAccessDenied",
	CodeProfileDoesntExist:       "Profile_DoesntExist",
	CodeProfileNotAvailable:      "Profile_NotAvailable",
	CodeProfileInvalidName:       "Profile_InvalidName",
	CodeConfigDoesntExist:        "Config_DoesntExist",
	CodeConfigTypeMismatch:       "Config_TypeMismatch",
	CodeSystemPathNotFound:       "System_PathNotFound",
	CodeSystemAccessDenied:       "System_AccessDenied",
	CodeSystemUnknown:            "System_UnknownError",
}
