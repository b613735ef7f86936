package ss

import "github.com/wordstore/wordstore/cmn/cos"

func genSentenceID() string { return cos.GenSentenceID() }
