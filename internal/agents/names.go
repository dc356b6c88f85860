package agents

import "github.com/talgya/assembly/internal/world"

var nameBank = map[world.Ethnicity]struct{ firsts, lasts []string }{
	world.EthnicMalay: {
		firsts: []string{"Abdul", "Ahmad", "Ismail", "Hussein", "Ghazali", "Aziz", "Zainal", "Rahman", "Salleh", "Fatimah", "Aishah", "Khadijah", "Halim", "Yusof", "Hamzah", "Mahathir"},
		lasts:  []string{"bin Osman", "bin Hashim", "bin Ali", "bin Yaakob", "bin Ibrahim", "bin Omar", "binti Hassan", "bin Jaafar", "bin Daud", "bin Mohamad", "bin Said", "binti Ahmad"},
	},
	world.EthnicChinese: {
		firsts: []string{"Tan", "Lim", "Lee", "Ong", "Wong", "Chan", "Goh", "Ng", "Yap", "Khoo", "Teh", "Chua"},
		lasts:  []string{"Siew Sin", "Chong Eu", "Kee Siong", "Boon Hock", "Ah Kow", "Mei Ling", "Kim Swee", "Tiong Hai", "Soo Chin", "Cheng Lock"},
	},
	world.EthnicIndian: {
		firsts: []string{"V.T.", "S.", "K.", "R.", "M.", "D.R.", "P.", "A."},
		lasts:  []string{"Sambanthan", "Manickavasagam", "Seenivasagam", "Devan Nair", "Ramasamy", "Pillai", "Subramaniam", "Krishnan", "Muthusamy", "Rajaratnam"},
	},
	world.EthnicOther: {
		firsts: []string{"John", "Peter", "Stephen", "Donald", "Fuad", "Temenggong"},
		lasts:  []string{"Kalong Ningkan", "Stephens", "Jugah", "Datu Mustapha", "Lee", "Pereira"},
	},
}

// RandomName draws a name appropriate to the community.
func RandomName(e world.Ethnicity, intn func(int) int) string {
	bank, ok := nameBank[e]
	if !ok {
		bank = nameBank[world.EthnicOther]
	}
	return bank.firsts[intn(len(bank.firsts))] + " " + bank.lasts[intn(len(bank.lasts))]
}
