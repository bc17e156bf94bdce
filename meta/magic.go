package meta

// KnownMagic is a 64-bit prefix identifying the kind of a meta payload.
type KnownMagic uint64

const (
	RainMetaDocumentV1             KnownMagic = 0xff0a89c674ee7874
	SolidityABIV2                  KnownMagic = 0xffe5ffb4a3ff2cde
	OpMetaV1                       KnownMagic = 0xffe5282f43e495b4
	InterpreterCallerMetaV1        KnownMagic = 0xffc21bbf86cc199b
	AuthoringMetaV1                KnownMagic = 0xffe9e3a02ca8e235
	DotrainV1                      KnownMagic = 0xffdac2f2f37be894
	ExpressionDeployerV2BytecodeV1 KnownMagic = 0xffdb988a8cd04d32
)

// String names the magic for logs and error messages.
func (m KnownMagic) String() string {
	switch m {
	case RainMetaDocumentV1:
		return "rain meta document v1"
	case SolidityABIV2:
		return "solidity abi v2"
	case OpMetaV1:
		return "op meta v1"
	case InterpreterCallerMetaV1:
		return "interpreter caller meta v1"
	case AuthoringMetaV1:
		return "authoring meta v1"
	case DotrainV1:
		return "dotrain v1"
	case ExpressionDeployerV2BytecodeV1:
		return "expression deployer v2 bytecode v1"
	default:
		return "unknown magic"
	}
}
