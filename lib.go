package main

// embeddedLibs holds the standard library's Forth source as Go string
// constants rather than files on disk, the way the teacher keeps its
// bootstrap program as a WriteTo method instead of a separate asset:
// the whole compiler is reproducible from one `go build` with nothing
// else to ship alongside the binary.
var embeddedLibs = map[string]string{
	"lib/core.fs":       coreLibSource,
	"lib/interrupts.fs": interruptsLibSource,
}

// coreLibSource defines the PIC18 special-function registers the
// compiler's own primitives reference by name (c.ref("..."), c.Builtin
// ("...")), the data/return stack initialization words, and the runtime
// helper words the folding arithmetic, memory, and bit primitives call
// into whenever their operands aren't compile-time constants.
//
// init_stack/init_rstack are ordinary callable words; the bare
// init_runtime entity that calls them is built directly by
// addDefaultContent instead of by a colon definition here, since it must
// never gain a closing Label/Return — every initialized variable appends
// straight-line store instructions to its body after the fact.
const coreLibSource = `
\ special function registers, common across the PIC18 parts this
\ compiler targets
$FFF constant TOSU
$FFE constant TOSH
$FFD constant TOSL
$FFC constant STKPTR
$FFB constant PCLATU
$FFA constant PCLATH
$FF9 constant PCL
$FF8 constant TBLPTRU
$FF7 constant TBLPTRH
$FF6 constant TBLPTRL
$FF5 constant TABLAT
$FF4 constant PRODH
$FF3 constant PRODL
$FF2 constant INTCON
$FF1 constant INTCON2
$FF0 constant INTCON3
$FEF constant INDF0
$FEE constant POSTINC0
$FED constant POSTDEC0
$FEC constant PREINC0
$FEB constant PLUSW0
$FEA constant FSR0H
$FE9 constant FSR0L
$FE8 constant WREG
$FE7 constant INDF1
$FE6 constant POSTINC1
$FE5 constant POSTDEC1
$FE4 constant PREINC1
$FE3 constant PLUSW1
$FE2 constant FSR1H
$FE1 constant FSR1L
$FE0 constant BSR
$FDF constant INDF2
$FDE constant POSTINC2
$FDD constant POSTDEC2
$FDC constant PREINC2
$FDB constant PLUSW2
$FDA constant FSR2H
$FD9 constant FSR2L
$FD8 constant STATUS

\ STATUS and INTCON bit numbers the bit-test helpers need
0 constant C
2 constant Z
7 constant GIE

\ EEPROM control registers (PIC18 data EEPROM interface)
$FA9 constant EEADR
$FA6 constant EEDATA
$FA7 constant EECON1
7 constant EEPGD
0 constant RD
1 constant WR
2 constant WREN

\ data/return stack initialization: FSR0 and FSR2 start one below their
\ working area since every push is a pre-increment
: init_stack $080 FSR0L c! ;
: init_rstack $0E0 FSR2L c! ;

\ scratch cell used by the dynamic @ runtime helper to hold the low byte
\ while the high byte is fetched
0 variable rt_tmp

\ runtime arithmetic helpers: operate on the top two data-stack bytes
\ when the folding primitives in prim_arith.go can't collapse them into
\ a compile-time constant.
code rt_add
  movf POSTDEC0,w,a
  addwf INDF0,f,a
  return
;code

code rt_sub
  movf POSTDEC0,w,a
  subwf INDF0,f,a
  return
;code

code rt_mul
  movf POSTDEC0,w,a
  mulwf INDF0,a
  movf PRODL,w,a
  movwf INDF0,a
  return
;code

\ shift count comes off the stack into the return stack as a cfor loop
\ counter; the value being shifted stays on top of the data stack
code rt_lshift
  movf POSTDEC0,w,a
  movwf rt_tmp,a
  movf rt_tmp,w,a
  movwf PREINC2,a
rt_lshift_loop
  bcf STATUS,C,a
  rlcf INDF0,f,a
  decf INDF2,f,a
  bnz rt_lshift_loop
  movf POSTDEC2,w,a
  return
;code

: rt_1plus 1 + ;
: rt_1minus 1 - ;

\ dynamic memory access: by the time these run, prim_mem.go has already
\ loaded FSR1 with the target address via popToFSR(1), leaving FSR0
\ (the data stack) untouched.
code rt_store
  movf POSTDEC0,w,a
  movwf POSTINC1,a
  movf POSTDEC0,w,a
  movwf INDF1,a
  return
;code

code rt_cstore
  movf POSTDEC0,w,a
  movwf INDF1,a
  return
;code

code rt_fetch
  movf POSTINC1,w,a
  movwf rt_tmp,a
  movf INDF1,w,a
  movwf PREINC0,a
  movf rt_tmp,w,a
  movwf PREINC0,a
  return
;code

code rt_cfetch
  movf INDF1,w,a
  movwf PREINC0,a
  return
;code

\ increments the byte at the dynamic address FSR1 already holds; the rare
\ carry into the cell's high byte is not propagated here, a simplification
\ this port accepts for the dynamic-address path only (the compile-time
\ constant-address path in primOnePlusStore handles it exactly).
code rt_1plus_store
  incf INDF1,f,a
  return
;code

\ EEPROM byte store: FSR1 already holds the target address from
\ popToFSR(1); only the low byte of a 12-bit EEPROM address is used, so
\ these helpers treat the address as an 8-bit EEADR value.
code ee_store
  movf POSTDEC0,w,a
  movwf rt_tmp,a
  movf FSR1L,w,a
  movwf EEADR,a
  movf rt_tmp,w,a
  movwf EEDATA,a
  bcf EECON1,EEPGD,a
  bsf EECON1,WREN,a
  bsf EECON1,WR,a
  bcf EECON1,WREN,a
  return
;code

code ee_cstore
  movf POSTDEC0,w,a
  movwf rt_tmp,a
  movf FSR1L,w,a
  movwf EEADR,a
  movf rt_tmp,w,a
  movwf EEDATA,a
  bsf EECON1,WREN,a
  bsf EECON1,WR,a
  bcf EECON1,WREN,a
  return
;code

\ bit-twiddle runtime helpers: addr/bit come off the data stack (two
\ bytes) when they aren't both compile-time constants in a short
\ addressable range.
code rt_bit_set
  movf POSTDEC0,w,a
  movwf rt_tmp,a
  movff POSTDEC0,FSR1L
  bsf INDF1,0,a
  return
;code

code rt_bit_clr
  movf POSTDEC0,w,a
  movwf rt_tmp,a
  movff POSTDEC0,FSR1L
  bcf INDF1,0,a
  return
;code

code rt_bit_toggle
  movf POSTDEC0,w,a
  movwf rt_tmp,a
  movff POSTDEC0,FSR1L
  btg INDF1,0,a
  return
;code

code rt_bit_set_q
  movf POSTDEC0,w,a
  movwf rt_tmp,a
  movff POSTDEC0,FSR1L
  btfss INDF1,0,a
  bcf STATUS,Z,a
  return
;code

code rt_bit_clr_q
  movf POSTDEC0,w,a
  movwf rt_tmp,a
  movff POSTDEC0,FSR1L
  btfsc INDF1,0,a
  bcf STATUS,Z,a
  return
;code
`

// interruptsLibSource defines the words a program needs once interrupts
// are enabled: a gate to (re)arm the global interrupt enable bit after
// `low-interrupt`/`high-interrupt` word bodies run via retfie.
const interruptsLibSource = `
: interrupts-on bsf INTCON,GIE,a ;
: interrupts-off bcf INTCON,GIE,a ;
`
