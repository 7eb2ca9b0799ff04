package gallery

import (
	"fmt"
	"math/big"
	"strings"
)

// etherDecimals is the number of decimal places in the payment currency.
const etherDecimals = 18

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(etherDecimals), nil)

// ParseAmount converts a decimal ETH string ("0.05") into wei. It rejects
// negative values, malformed input, and fractions finer than one wei.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("amount %q is negative", s)
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > etherDecimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, etherDecimals)
	}
	// Digits only: SetString would accept sign characters inside either part.
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("amount %q is not a decimal number", s)
	}

	wholeWei, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a decimal number", s)
	}
	wholeWei.Mul(wholeWei, weiPerEther)

	if frac != "" {
		fracWei, ok := new(big.Int).SetString(frac, 10)
		if !ok {
			return nil, fmt.Errorf("amount %q is not a decimal number", s)
		}
		// Scale the fraction up to 18 places.
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(etherDecimals-len(frac))), nil)
		wholeWei.Add(wholeWei, fracWei.Mul(fracWei, scale))
	}

	return wholeWei, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatAmount converts wei into a decimal ETH string with trailing zeros
// trimmed, e.g. 5000000000000000 -> "0.005".
func FormatAmount(wei *big.Int) string {
	if wei == nil {
		return "0"
	}

	quo, rem := new(big.Int).QuoRem(wei, weiPerEther, new(big.Int))
	if rem.Sign() == 0 {
		return quo.String()
	}

	frac := strings.TrimRight(fmt.Sprintf("%018s", rem.String()), "0")
	return quo.String() + "." + frac
}

// SplitAmount divides a total payment between the donation and the owner
// share: donated = total*rate/100 truncated toward zero, owner = total -
// donated. The two always sum to the total exactly.
func SplitAmount(totalWei *big.Int, rate int) (donated, owner *big.Int) {
	donated = new(big.Int).Mul(totalWei, big.NewInt(int64(rate)))
	donated.Quo(donated, big.NewInt(100))
	owner = new(big.Int).Sub(totalWei, donated)
	return donated, owner
}

// newSplitPreview computes the live split for a listing price against a
// cached contract configuration.
func newSplitPreview(priceWei *big.Int, cfg ContractConfig) *SplitPreview {
	donated, owner := SplitAmount(priceWei, cfg.CommissionRate)
	return &SplitPreview{
		Donated:        FormatAmount(donated),
		OwnerShare:     FormatAmount(owner),
		DonatedPercent: cfg.CommissionRate,
		OwnerPercent:   100 - cfg.CommissionRate,
		Recipient:      cfg.Recipient,
	}
}
