// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2024-present Datadog, Inc.

// Package safeelf re-exports the debug/elf names the object reader relies on
// without exposing the debug/elf parser itself.
//
//nolint:revive
package safeelf

import "debug/elf" //nolint:depguard

type Class = elf.Class
type Data = elf.Data
type Type = elf.Type
type Machine = elf.Machine
type SectionType = elf.SectionType
type SectionIndex = elf.SectionIndex
type SymBind = elf.SymBind
type SymType = elf.SymType

const ELFMAG = elf.ELFMAG

const EI_CLASS = elf.EI_CLASS
const EI_DATA = elf.EI_DATA
const EI_NIDENT = elf.EI_NIDENT

const ELFCLASS32 = elf.ELFCLASS32
const ELFCLASS64 = elf.ELFCLASS64

const ELFDATA2LSB = elf.ELFDATA2LSB
const ELFDATA2MSB = elf.ELFDATA2MSB

const ET_REL = elf.ET_REL
const ET_EXEC = elf.ET_EXEC

const EM_386 = elf.EM_386
const EM_X86_64 = elf.EM_X86_64
const EM_PPC = elf.EM_PPC
const EM_S390 = elf.EM_S390

const SHT_NULL = elf.SHT_NULL
const SHT_PROGBITS = elf.SHT_PROGBITS
const SHT_SYMTAB = elf.SHT_SYMTAB
const SHT_STRTAB = elf.SHT_STRTAB
const SHT_NOBITS = elf.SHT_NOBITS

const SHN_UNDEF = elf.SHN_UNDEF
const SHN_ABS = elf.SHN_ABS
const SHN_COMMON = elf.SHN_COMMON

const STB_LOCAL = elf.STB_LOCAL
const STB_GLOBAL = elf.STB_GLOBAL
const STB_WEAK = elf.STB_WEAK

const STT_NOTYPE = elf.STT_NOTYPE
const STT_OBJECT = elf.STT_OBJECT
const STT_FUNC = elf.STT_FUNC
const STT_SECTION = elf.STT_SECTION

const Sym32Size = elf.Sym32Size
const Sym64Size = elf.Sym64Size

func ST_TYPE(info uint8) SymType              { return elf.ST_TYPE(info) }
func ST_BIND(info uint8) SymBind              { return elf.ST_BIND(info) }
func ST_INFO(bind SymBind, typ SymType) uint8 { return elf.ST_INFO(bind, typ) }
