package detectors

import (
	"fmt"

	"github.com/smith-xyz/cairo-flowscan/pkg/models"
)

// interfaceFunction is one entry point of a token standard
type interfaceFunction struct {
	name      string
	arguments []string // argument types, compared on their last path segment
}

var erc20Interface = []interfaceFunction{
	{name: "name"},
	{name: "symbol"},
	{name: "decimals"},
	{name: "totalSupply"},
	{name: "balanceOf", arguments: []string{"felt"}},
	{name: "allowance", arguments: []string{"felt", "felt"}},
	{name: "transfer", arguments: []string{"felt", "Uint256"}},
	{name: "transferFrom", arguments: []string{"felt", "felt", "Uint256"}},
	{name: "approve", arguments: []string{"felt", "Uint256"}},
}

var erc721Interface = []interfaceFunction{
	{name: "balanceOf", arguments: []string{"felt"}},
	{name: "ownerOf", arguments: []string{"Uint256"}},
	{name: "getApproved", arguments: []string{"Uint256"}},
	{name: "isApprovedForAll", arguments: []string{"felt", "felt"}},
	{name: "approve", arguments: []string{"felt", "Uint256"}},
	{name: "setApprovalForAll", arguments: []string{"felt", "felt"}},
	{name: "transferFrom", arguments: []string{"felt", "felt", "Uint256"}},
	{name: "safeTransferFrom", arguments: []string{"felt", "felt", "Uint256", "felt", "felt*"}},
}

// ERC20 detects contracts exposing the full ERC20 interface
type ERC20 struct{}

func (ERC20) Name() string     { return "ERC20" }
func (ERC20) Argument() string { return "erc20" }
func (ERC20) Help() string     { return "Detects if a contract is an ERC20 token" }
func (ERC20) Impact() Severity { return Informational }

func (d ERC20) Detect(prog *models.Program) Result {
	return detectInterface(d, "ERC20", erc20Interface, prog)
}

// ERC721 detects contracts exposing the full ERC721 interface
type ERC721 struct{}

func (ERC721) Name() string     { return "ERC721" }
func (ERC721) Argument() string { return "erc721" }
func (ERC721) Help() string     { return "Detects if a contract is an ERC721 token" }
func (ERC721) Impact() Severity { return Informational }

func (d ERC721) Detect(prog *models.Program) Result {
	return detectInterface(d, "ERC721", erc721Interface, prog)
}

// detectInterface marks the result detected when every interface function is
// implemented by an entry point of the program.
func detectInterface(d Detector, standard string, iface []interfaceFunction, prog *models.Program) Result {
	result := newResult(d)

	matched := 0
	for _, want := range iface {
		if implements(prog, want) {
			matched++
		}
	}

	if matched == len(iface) {
		result.add("Contract seems to be an %s token (%s)", standard, matchSummary(matched, len(iface)))
	}
	return result
}

func implements(prog *models.Program, want interfaceFunction) bool {
	for _, fn := range prog.Functions {
		if !fn.EntryPoint || fn.LocalName() != want.name {
			continue
		}
		if argumentTypesMatch(fn.Arguments, want.arguments) {
			return true
		}
	}
	return false
}

func argumentTypesMatch(args []models.Variable, types []string) bool {
	if len(args) != len(types) {
		return false
	}
	for i, arg := range args {
		if models.LocalName(arg.Type) != types[i] {
			return false
		}
	}
	return true
}

func matchSummary(matched, total int) string {
	return fmt.Sprintf("%d/%d functions", matched, total)
}
